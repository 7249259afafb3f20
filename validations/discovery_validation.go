package validations

import (
	"context"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	domainDiscovery "github.com/kavelar/moviemind/domains/discovery"
	pkgError "github.com/kavelar/moviemind/pkg/error"
)

type searchRequest struct {
	Query string
}

func ValidateSearch(ctx context.Context, query string) error {
	request := searchRequest{Query: query}
	err := validation.ValidateStructWithContext(ctx, &request,
		validation.Field(&request.Query, validation.Required, validation.Length(1, 200)),
	)

	if err != nil {
		return pkgError.ValidationError(err.Error())
	}

	return nil
}

func ValidateChat(ctx context.Context, request domainDiscovery.ChatRequest) error {
	err := validation.ValidateStructWithContext(ctx, &request,
		validation.Field(&request.Message, validation.Required, validation.Length(1, 2000)),
	)

	if err != nil {
		return pkgError.ValidationError(err.Error())
	}

	for _, turn := range request.History {
		if turn.Role != "user" && turn.Role != "assistant" {
			return pkgError.ValidationError("history roles must be user or assistant")
		}
	}

	return nil
}
