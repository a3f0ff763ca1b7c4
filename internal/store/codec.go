package store

import (
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/atlanticdynamic/pcstate/internal/model"
)

// EncodeField serializes field i of h. Tracked containers are encoded by
// their detached copy.
func EncodeField(h Handle, i int) ([]byte, error) {
	v := h.ProvideField(i)
	if tc, ok := v.(model.TrackedContainer); ok {
		v = tc.Detach()
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("%w: encode %s.%s: %w", ErrFieldCodec, h.Class().Name, fieldName(h, i), err)
	}
	return data, nil
}

// DecodeField parses data into the declared type of field i and replaces it on h.
func DecodeField(h Handle, i int, data []byte) error {
	cls := h.Class()
	if i < 0 || i >= cls.NumFields() {
		return fmt.Errorf("%w: %s has no field %d", ErrFieldCodec, cls.Name, i)
	}
	t := cls.Fields[i].Type
	if t == nil {
		var v any
		if err := json.Unmarshal(data, &v); err != nil {
			return fmt.Errorf("%w: decode %s.%s: %w", ErrFieldCodec, cls.Name, fieldName(h, i), err)
		}
		h.ReplaceField(i, v)
		return nil
	}
	ptr := reflect.New(t)
	if err := json.Unmarshal(data, ptr.Interface()); err != nil {
		return fmt.Errorf("%w: decode %s.%s: %w", ErrFieldCodec, cls.Name, fieldName(h, i), err)
	}
	h.ReplaceField(i, ptr.Elem().Interface())
	return nil
}

func fieldName(h Handle, i int) string {
	cls := h.Class()
	if i < 0 || i >= cls.NumFields() {
		return fmt.Sprintf("#%d", i)
	}
	return cls.Fields[i].Name
}
