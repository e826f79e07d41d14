package validate_test

import (
	"testing"

	"github.com/ardanlabs/ledger/business/sys/validate"
)

type request struct {
	ID     string `json:"id" validate:"required"`
	Port   uint32 `json:"port" validate:"required,max=65535"`
	Amount int64  `json:"amount" validate:"gte=0"`
}

func Test_Check(t *testing.T) {
	if err := validate.Check(request{ID: "a", Port: 9080}); err != nil {
		t.Fatalf("Should accept a valid value: %s", err)
	}

	err := validate.Check(request{Port: 70000, Amount: -1})
	if !validate.IsFieldErrors(err) {
		t.Fatalf("Should get back field errors: %v", err)
	}

	fields := validate.GetFieldErrors(err).Fields()
	for _, name := range []string{"id", "port", "amount"} {
		if _, exists := fields[name]; !exists {
			t.Fatalf("Should report the %q field using its json name: %v", name, fields)
		}
	}
}
