package validations

import (
	"context"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"

	domainBot "github.com/arkadyvz/visorbot/domains/bot"
	pkgError "github.com/arkadyvz/visorbot/pkg/error"
)

func ValidateSetWebhook(ctx context.Context, request domainBot.SetWebhookRequest) error {
	err := validation.ValidateStructWithContext(ctx, &request,
		validation.Field(&request.URL, is.URL),
	)

	if err != nil {
		return pkgError.ValidationError(err.Error())
	}

	return nil
}
