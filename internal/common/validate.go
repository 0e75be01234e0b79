package common

import "github.com/go-playground/validator/v10"

// Validate is the shared request validator; handlers run it on decoded
// payloads before touching any service.
var Validate = validator.New(validator.WithRequiredStructEnabled())
