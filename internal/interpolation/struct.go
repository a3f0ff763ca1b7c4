package interpolation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
)

// TagName marks the fields InterpolateStruct expands: `env_interpolation:"yes"`.
const TagName = "env_interpolation"

// InterpolateStruct expands tagged string and []string fields of the struct
// v points to, in place. Nested structs and struct pointers are walked
// whether tagged or not, so a tag on a leaf field is enough.
func InterpolateStruct(v any) error {
	if v == nil {
		return nil
	}

	val := reflect.ValueOf(v)
	if val.Kind() != reflect.Pointer {
		return fmt.Errorf("expected pointer to struct, got %T", v)
	}
	if val.IsNil() {
		return nil
	}
	val = val.Elem()
	if val.Kind() != reflect.Struct {
		return fmt.Errorf("expected pointer to struct, got %T", v)
	}

	typ := val.Type()
	var errs []error
	for i := range val.NumField() {
		field := val.Field(i)
		fieldType := typ.Field(i)
		if !field.CanSet() {
			continue
		}
		tagged := strings.EqualFold(fieldType.Tag.Get(TagName), "yes")

		switch field.Kind() {
		case reflect.String:
			if !tagged || field.String() == "" {
				continue
			}
			expanded, err := ExpandEnvVars(field.String())
			if err != nil {
				errs = append(errs, fmt.Errorf("field %s: %w", fieldType.Name, err))
				continue
			}
			field.SetString(expanded)

		case reflect.Slice:
			if !tagged || field.Type().Elem().Kind() != reflect.String {
				continue
			}
			for j := range field.Len() {
				elem := field.Index(j)
				expanded, err := ExpandEnvVars(elem.String())
				if err != nil {
					errs = append(errs, fmt.Errorf("field %s[%d]: %w", fieldType.Name, j, err))
					continue
				}
				elem.SetString(expanded)
			}

		case reflect.Struct:
			if err := InterpolateStruct(field.Addr().Interface()); err != nil {
				errs = append(errs, fmt.Errorf("field %s: %w", fieldType.Name, err))
			}

		case reflect.Pointer:
			if field.Type().Elem().Kind() != reflect.Struct || field.IsNil() {
				continue
			}
			if err := InterpolateStruct(field.Interface()); err != nil {
				errs = append(errs, fmt.Errorf("field %s: %w", fieldType.Name, err))
			}
		}
	}

	return errors.Join(errs...)
}
