package cmd

import (
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	globalConfig "github.com/arkadyvz/visorbot/config"
	domainBot "github.com/arkadyvz/visorbot/domains/bot"
	domainHealth "github.com/arkadyvz/visorbot/domains/health"
	"github.com/arkadyvz/visorbot/infrastructure/telegram"
	"github.com/arkadyvz/visorbot/integrations/gemini"
	"github.com/arkadyvz/visorbot/integrations/removebg"
	"github.com/arkadyvz/visorbot/integrations/vision"
	"github.com/arkadyvz/visorbot/pkg/botmonitor"
	"github.com/arkadyvz/visorbot/pkg/utils"
	"github.com/arkadyvz/visorbot/usecase"
)

var (
	botMonitor      *botmonitor.Monitor
	telegramClient  *telegram.Client
	geminiService   *gemini.Service
	visionService   *vision.Service
	removeBgService *removebg.Service

	dispatcherUsecase domainBot.IDispatcherUsecase
	healthUsecase     domainHealth.IHealthUsecase
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Short: "Telegram AI relay bot",
	Long: `Webhook-driven Telegram bot that relays messages and photos to
Gemini, Google Vision and remove.bg and returns the combined output.`,
}

func init() {
	// Load environment variables first
	utils.LoadConfig(".")

	time.Local = time.UTC

	rootCmd.CompletionOptions.DisableDefaultCmd = true

	initFlags()

	cobra.OnInitialize(initEnvConfig, initApp)
}

// initEnvConfig loads configuration from environment variables
func initEnvConfig() {
	if envPort := viper.GetString("app_port"); envPort != "" {
		globalConfig.AppPort = envPort
	}
	if envDebug := viper.GetBool("app_debug"); envDebug {
		globalConfig.AppDebug = envDebug
	}
	if envTempPath := viper.GetString("app_temp_path"); envTempPath != "" {
		globalConfig.PathTemp = envTempPath
	}
}

func initFlags() {
	rootCmd.PersistentFlags().StringVarP(
		&globalConfig.AppPort,
		"port", "p",
		globalConfig.AppPort,
		"change port number with --port <number> | example: --port=8080",
	)
	rootCmd.PersistentFlags().BoolVarP(
		&globalConfig.AppDebug,
		"debug", "d",
		globalConfig.AppDebug,
		"hide or displaying log with --debug <true/false> | example: --debug=true",
	)
	rootCmd.PersistentFlags().StringVarP(
		&globalConfig.WebhookBaseURL,
		"webhook-url", "w",
		globalConfig.WebhookBaseURL,
		`externally reachable base URL for /set_webhook --webhook-url <string> | example: --webhook-url="https://bot.example.com"`,
	)
}

func initApp() {
	if globalConfig.AppDebug {
		logrus.SetLevel(logrus.DebugLevel)
	}

	// preparing folder if not exist
	if err := utils.CreateFolder(globalConfig.PathTemp); err != nil {
		logrus.Errorln(err)
	}

	botMonitor = botmonitor.New(globalConfig.MonitorEventBuffer)

	telegramClient = telegram.NewClient()
	geminiService = gemini.NewService()
	visionService = vision.NewService()
	removeBgService = removebg.NewService()

	dispatcherUsecase = usecase.NewDispatcherService(telegramClient, geminiService, visionService, removeBgService, botMonitor)
	healthUsecase = usecase.NewHealthService(telegramClient, geminiService, visionService, removeBgService)

	botMonitor.Start()
	if !telegramClient.Available() {
		botMonitor.SetState(botmonitor.StateConfigMissing)
	}
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
