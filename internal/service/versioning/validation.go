package versioning

import (
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"promptvault/internal/config"
	"promptvault/internal/domain"
	models "promptvault/internal/domain/models/versioning"
)

// validateFields checks the fields a save writes onto a document.
// Content may be empty; title and label may not.
func validateFields(f *models.DocumentFields) error {
	err := validation.ValidateStruct(f,
		validation.Field(&f.Title,
			validation.Required.Error("title is required"),
			validation.RuneLength(1, config.MaxTitleLength),
		),
		validation.Field(&f.Label,
			validation.Required.Error("label is required"),
			validation.RuneLength(1, config.MaxLabelLength),
		),
		validation.Field(&f.ChangeDescription,
			validation.NilOrNotEmpty.Error("change description cannot be blank"),
			validation.RuneLength(0, config.MaxChangeDescriptionLength),
		),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	return nil
}

// validateLabel checks the label precondition shared by operations that snapshot a document
func validateLabel(label, msg string) error {
	if err := validation.Validate(label, validation.Required); err != nil {
		return fmt.Errorf("%w: %s", domain.ErrValidation, msg)
	}
	return nil
}
