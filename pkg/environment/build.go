package environment

import (
	stderrors "errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	autoerrors "github.com/kart-io/docstore-boot/pkg/errors"
)

// Build produces the frozen environment:
//
//  1. start from defaults;
//  2. replace every field present in overrides;
//  3. run the customizers in order, each seeing the previous ones' changes;
//     a field a customizer changes, or pins through Builder.Apply, is explicit;
//  4. freeze and validate.
//
// On a validation failure Build returns the zero Settings and a
// *errors.ConfigurationError naming the offending fields.
func Build(defaults Settings, overrides Overrides, customizers ...Customizer) (Settings, error) {
	values := defaults.values
	explicit := make(map[string]bool, len(defaults.explicit))
	for k, v := range defaults.explicit {
		explicit[k] = v
	}

	overrides.applyTo(&values, explicit)

	b := &Builder{Values: values, explicit: explicit}
	for _, c := range SortCustomizers(customizers) {
		before := b.Values
		c.Customize(b)
		markChanged(&before, &b.Values, explicit)
	}

	if err := validate(b.Values); err != nil {
		return Settings{}, err
	}

	return Settings{values: b.Values, explicit: explicit}, nil
}

func markChanged(before, after *Values, explicit map[string]bool) {
	for _, f := range fieldTable {
		if f.get(before) != f.get(after) {
			explicit[f.name] = true
		}
	}
}

var (
	structValidate *validator.Validate
	validateOnce   sync.Once
)

func structValidator() *validator.Validate {
	validateOnce.Do(func() {
		structValidate = validator.New()
		// Use JSON tag names for error field names
		structValidate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "" || name == "-" {
				return fld.Name
			}
			return name
		})
	})
	return structValidate
}

func validate(v Values) error {
	var fields, reasons []string

	if err := structValidator().Struct(v); err != nil {
		var verrs validator.ValidationErrors
		if !stderrors.As(err, &verrs) {
			return autoerrors.NewConfigurationError(err.Error())
		}
		for _, fe := range verrs {
			fields = append(fields, fe.Field())
			reasons = append(reasons, describeFailure(fe))
		}
	}

	if v.IO.MinConnections > v.IO.MaxConnections {
		fields = append(fields, FieldMinConnections, FieldMaxConnections)
		reasons = append(reasons, fmt.Sprintf("%s (%d) must not exceed %s (%d)",
			FieldMinConnections, v.IO.MinConnections, FieldMaxConnections, v.IO.MaxConnections))
	}

	if len(fields) == 0 {
		return nil
	}
	return autoerrors.NewConfigurationError(strings.Join(reasons, "; "), dedupe(fields)...)
}

func describeFailure(fe validator.FieldError) string {
	switch fe.Tag() {
	case "gte":
		return fmt.Sprintf("%s must not be negative", fe.Field())
	case "gt":
		return fmt.Sprintf("%s must be greater than zero", fe.Field())
	case "required_if":
		return fmt.Sprintf("%s is required when TLS is enabled", fe.Field())
	default:
		return fmt.Sprintf("%s failed %s validation", fe.Field(), fe.Tag())
	}
}

func dedupe(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := in[:0]
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
