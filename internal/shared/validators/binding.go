package validators

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// Tags de validation exposés aux DTO de requête (binding:"cpf", validate:"cep", ...)
const (
	TagCPF        = "cpf"
	TagCEP        = "cep"
	TagPhone      = "br_phone"
	TagCardExpiry = "card_expiry"
	TagUF         = "uf"
)

// RegisterTags enregistre les validateurs brésiliens sur une instance validator
func RegisterTags(v *validator.Validate) error {
	tags := map[string]validator.Func{
		TagCPF:   stringRule(IsValidCPF),
		TagCEP:   stringRule(IsValidCEP),
		TagPhone: stringRule(IsValidPhone),
		TagUF:    stringRule(IsValidUF),
		TagCardExpiry: func(fl validator.FieldLevel) bool {
			return IsValidCardExpiry(fl.Field().String(), time.Now())
		},
	}

	for tag, fn := range tags {
		if err := v.RegisterValidation(tag, fn); err != nil {
			return fmt.Errorf("enregistrement tag %s: %w", tag, err)
		}
	}
	return nil
}

// RegisterGinBindings branche les tags sur le moteur de binding de Gin
func RegisterGinBindings() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return fmt.Errorf("moteur de validation gin inattendu: %T", binding.Validator.Engine())
	}
	return RegisterTags(v)
}

// New retourne un validator prêt à l'emploi avec les tags brésiliens
func New() *validator.Validate {
	v := validator.New()
	// Les noms de tags sont fixes et les fonctions non nil : erreur impossible
	_ = RegisterTags(v)
	return v
}

func stringRule(fn func(string) bool) validator.Func {
	return func(fl validator.FieldLevel) bool {
		return fn(fl.Field().String())
	}
}
