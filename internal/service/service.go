package service

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/Lixing-Zhang/foodstand-backend/internal/locker"
	"github.com/Lixing-Zhang/foodstand-backend/internal/models"
	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validateStruct runs the struct-tag rules on v and converts failures into a
// *models.ValidationError keyed by JSON field path.
func validateStruct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", models.ErrValidation, err)
	}

	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fieldPath(fe.Namespace())] = describe(fe)
	}
	return &models.ValidationError{Fields: fields}
}

// fieldPath drops the struct name from a validator namespace such as
// "DirectOrderRequest.items[0].name".
func fieldPath(ns string) string {
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return "must contain at least " + fe.Param() + " entries"
	case "gt":
		return "must be greater than " + fe.Param()
	default:
		return "failed " + fe.Tag() + " check"
	}
}

// withLock runs fn inside the write critical section.
func withLock(ctx context.Context, l locker.Locker, fn func() error) error {
	release, err := l.Obtain(ctx)
	if err != nil {
		return err
	}
	defer release()
	return fn()
}

func persistErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", models.ErrPersistence, op, err)
}

func notFound(kind string, id int64) error {
	return fmt.Errorf("%w: %s %d", models.ErrNotFound, kind, id)
}

// nextID is max(ids)+1, or 1 for an empty collection.
func nextID[T any](items []T, id func(T) int64) int64 {
	var maxID int64
	for _, it := range items {
		if v := id(it); v > maxID {
			maxID = v
		}
	}
	return maxID + 1
}

func indexOf[T any](items []T, id func(T) int64, want int64) int {
	for i, it := range items {
		if id(it) == want {
			return i
		}
	}
	return -1
}

func ingredientID(i models.Ingredient) int64 { return i.ID }
func menuItemID(m models.MenuItem) int64     { return m.ID }
func orderID(o models.Order) int64           { return o.ID }

func matchesQuery(name, query string) bool {
	return strings.Contains(strings.ToLower(name), strings.ToLower(strings.TrimSpace(query)))
}
