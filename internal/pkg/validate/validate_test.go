package validate

import "testing"

type signIn struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func TestStruct(t *testing.T) {
	tests := []struct {
		name string
		in   signIn
		want string
	}{
		{"valid", signIn{Email: "supplier@demo.com", Password: "x"}, ""},
		{"missing both", signIn{}, "email is required; password is required"},
		{"bad email", signIn{Email: "nope", Password: "x"}, "email must be a valid email"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Struct(tt.in)
			if tt.want == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || err.Error() != tt.want {
				t.Fatalf("expected %q, got %v", tt.want, err)
			}
		})
	}
}
