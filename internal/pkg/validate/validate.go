package validate

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	nanoid64Pattern = regexp.MustCompile(`^[A-Za-z0-9_-]{64}$`)
	md5HexPattern   = regexp.MustCompile(`^[0-9A-Fa-f]{32}$`)
	usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_]{3,30}$`)
)

// v is the package-level singleton validator. Custom tags are registered in
// init before the first call to Struct.
var v = validator.New()

func init() {
	mustRegister("nanoid64", nanoid64Pattern)
	mustRegister("md5hex", md5HexPattern)
	mustRegister("username", usernamePattern)
}

func mustRegister(tag string, re *regexp.Regexp) {
	err := v.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
		return re.MatchString(fl.Field().String())
	})
	if err != nil {
		panic(fmt.Sprintf("register validation %s: %v", tag, err))
	}
}

// Struct validates the given struct using its validate tags.
// Returns a human-readable error string or nil.
func Struct(s interface{}) error {
	if err := v.Struct(s); err != nil {
		ve, ok := err.(validator.ValidationErrors)
		if !ok {
			return err
		}
		var msgs []string
		for _, fe := range ve {
			msgs = append(msgs, fmt.Sprintf("field '%s' failed '%s'", fe.Field(), fe.Tag()))
		}
		return fmt.Errorf("%s", strings.Join(msgs, "; "))
	}
	return nil
}

// ID reports whether s is a 64-character nanoid.
func ID(s string) bool { return nanoid64Pattern.MatchString(s) }

// Username reports whether s is an acceptable username.
func Username(s string) bool { return usernamePattern.MatchString(s) }
