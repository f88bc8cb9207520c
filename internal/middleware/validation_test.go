package middleware

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// shippingForm mirrors the checkout shipping payload
type shippingForm struct {
	FullName string `json:"full_name" validate:"required"`
	Phone    string `json:"phone" validate:"required,len=10,numeric"`
	Address  string `json:"address" validate:"required"`
	PinCode  string `json:"pin_code" validate:"required,len=6,numeric"`
}

func TestProperty_RequiredFieldValidationWorks(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("missing required fields are rejected", prop.ForAll(
		func(includeName bool, includePhone bool, includeAddress bool, includePin bool) bool {
			reqMap := make(map[string]interface{})

			if includeName {
				reqMap["full_name"] = "Priya Sharma"
			}
			if includePhone {
				reqMap["phone"] = "9876543210"
			}
			if includeAddress {
				reqMap["address"] = "12 MG Road"
			}
			if includePin {
				reqMap["pin_code"] = "302001"
			}

			allFieldsPresent := includeName && includePhone && includeAddress && includePin

			reqBody, _ := json.Marshal(reqMap)
			req := httptest.NewRequest("POST", "/checkout", bytes.NewReader(reqBody))
			req.Header.Set("Content-Type", "application/json")

			var form shippingForm
			err := DecodeAndValidate(req, &form)

			if allFieldsPresent {
				return err == nil
			}
			return err != nil
		},
		gen.Bool(),
		gen.Bool(),
		gen.Bool(),
		gen.Bool(),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestProperty_ValidationErrorsAreFormatted(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("validation errors include field information", prop.ForAll(
		func() bool {
			reqMap := map[string]interface{}{
				"full_name": "Priya Sharma",
				"phone":     "not-a-phone",
				"address":   "12 MG Road",
				"pin_code":  "302001",
			}

			reqBody, _ := json.Marshal(reqMap)
			req := httptest.NewRequest("POST", "/checkout", bytes.NewReader(reqBody))
			req.Header.Set("Content-Type", "application/json")

			var form shippingForm
			err := DecodeAndValidate(req, &form)
			if err == nil {
				return false
			}

			validationErrors := FormatValidationErrors(err)
			if len(validationErrors) == 0 {
				return false
			}

			for _, ve := range validationErrors {
				if ve.Field == "" || ve.Message == "" {
					return false
				}
			}

			return true
		},
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestProperty_PincodeLengthValidation(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("only 6-digit pincodes pass validation", prop.ForAll(
		func(pin int) bool {
			pinStr := fmt.Sprintf("%d", pin)

			reqMap := map[string]interface{}{
				"full_name": "Priya Sharma",
				"phone":     "9876543210",
				"address":   "12 MG Road",
				"pin_code":  pinStr,
			}

			reqBody, _ := json.Marshal(reqMap)
			req := httptest.NewRequest("POST", "/checkout", bytes.NewReader(reqBody))
			req.Header.Set("Content-Type", "application/json")

			var form shippingForm
			err := DecodeAndValidate(req, &form)

			if len(pinStr) == 6 {
				return err == nil
			}
			return err != nil
		},
		gen.IntRange(1, 99999999),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestProperty_ValidRequestsPassValidation(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("well-formed shipping payloads pass validation", prop.ForAll(
		func(seed int) bool {
			names := []string{"Priya Sharma", "Asha Rao", "Meera Patel", "Kavya Nair"}
			pins := []string{"302001", "560001", "110001", "400001"}

			if seed < 0 {
				seed = -seed
			}

			reqMap := map[string]interface{}{
				"full_name": names[seed%len(names)],
				"phone":     "9876543210",
				"address":   "12 MG Road",
				"pin_code":  pins[seed%len(pins)],
			}

			reqBody, _ := json.Marshal(reqMap)
			req := httptest.NewRequest("POST", "/checkout", bytes.NewReader(reqBody))
			req.Header.Set("Content-Type", "application/json")

			var form shippingForm
			return DecodeAndValidate(req, &form) == nil
		},
		gen.Int(),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}
