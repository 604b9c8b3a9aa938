package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type slotInput struct {
	Date string `validate:"required,ymd"`
	Time string `validate:"required,hhmm"`
}

type optionalInput struct {
	Date string `validate:"omitempty,ymd"`
}

func TestCustomTags(t *testing.T) {
	v := New()

	tests := []struct {
		name    string
		input   slotInput
		wantErr bool
	}{
		{"valid", slotInput{Date: "2025-03-14", Time: "09:30"}, false},
		{"bad month", slotInput{Date: "2025-13-01", Time: "09:30"}, true},
		{"bad day", slotInput{Date: "2025-02-30", Time: "09:30"}, true},
		{"slashes", slotInput{Date: "2025/03/14", Time: "09:30"}, true},
		{"hour out of range", slotInput{Date: "2025-03-14", Time: "24:00"}, true},
		{"single digit hour", slotInput{Date: "2025-03-14", Time: "9:30"}, true},
		{"seconds", slotInput{Date: "2025-03-14", Time: "09:30:00"}, true},
		{"missing time", slotInput{Date: "2025-03-14"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Struct(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCustomTags_EmptyOptional(t *testing.T) {
	assert.NoError(t, New().Struct(optionalInput{}))
}

func TestMessagesCoverCustomTags(t *testing.T) {
	msgs := Messages()
	for tag := range Custom() {
		assert.NotEmpty(t, msgs[tag], tag)
	}
}
