package validation

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/username/gescom/backend/src/logger"
)

func TestMain(m *testing.M) {
	logger.InitLogger("error")
	os.Exit(m.Run())
}

func TestValidateAmount(t *testing.T) {
	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{"0", "0", true},
		{"150.5", "150.5", true},
		{"150.500", "150.5", true},
		{" 42 ", "42", true},
		{"0.001", "0.001", true},
		{"1.2300", "1.23", true},
		{"0.0010", "0.001", true},
		{"", "", false},
		{"abc", "", false},
		{"-5", "", false},
		{"-0.001", "", false},
		{"1.0001", "", false},
		{"1,5", "", false},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ValidateAmount(tc.in, "amount")
			if !tc.ok {
				require.ErrorIs(t, err, ErrValidationFailed)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.want, got.String())
		})
	}
}

func TestValidateDateString(t *testing.T) {
	got, err := ValidateDateString("2025-08-20", "date")
	require.NoError(t, err)
	require.Equal(t, "2025-08-20", got)

	got, err = ValidateDateString("  2025-01-01  ", "date")
	require.NoError(t, err)
	require.Equal(t, "2025-01-01", got)

	for _, bad := range []string{"", "20/08/2025", "2025-8-20", "2025-02-30", "2025-13-01", "yesterday"} {
		_, err := ValidateDateString(bad, "date")
		require.ErrorIs(t, err, ErrValidationFailed, "input %q", bad)
	}
}

func TestValidateDocumentNumber(t *testing.T) {
	require.NoError(t, ValidateDocumentNumber(""))
	require.NoError(t, ValidateDocumentNumber("CHQ-001"))
	require.NoError(t, ValidateDocumentNumber("2025/08 A_b"))

	require.ErrorIs(t, ValidateDocumentNumber("CHQ#1"), ErrValidationFailed)
	require.ErrorIs(t, ValidateDocumentNumber("<x>"), ErrValidationFailed)
}

func TestValidateEmailAddress(t *testing.T) {
	require.NoError(t, ValidateEmailAddress("", "email"))
	require.NoError(t, ValidateEmailAddress("compta@nord.example.com", "email"))
	require.ErrorIs(t, ValidateEmailAddress("not-an-address", "email"), ErrValidationFailed)
	require.ErrorIs(t, ValidateEmailAddress("a@b", "email"), ErrValidationFailed)
}

func TestValidatePhoneNumber(t *testing.T) {
	require.NoError(t, ValidatePhoneNumber("", "phone"))
	require.NoError(t, ValidatePhoneNumber("+33 1 23 45 67 89", "phone"))
	require.NoError(t, ValidatePhoneNumber("0123456789", "phone"))
	require.ErrorIs(t, ValidatePhoneNumber("call me", "phone"), ErrValidationFailed)
}

func TestValidateWeekToken(t *testing.T) {
	require.NoError(t, ValidateWeekToken(""))
	require.NoError(t, ValidateWeekToken("2025-W34"))
	require.NoError(t, ValidateWeekToken("2025-W1"))

	require.ErrorIs(t, ValidateWeekToken("2025-34"), ErrValidationFailed)
	require.ErrorIs(t, ValidateWeekToken("W34"), ErrValidationFailed)
	require.ErrorIs(t, ValidateWeekToken("2025-W345"), ErrValidationFailed)
}

func TestCleanComment(t *testing.T) {
	require.Equal(t, "hello", CleanComment("  hello  "))
	require.Equal(t, "stock refill", CleanComment("<script>alert(1)</script>stock refill"))
	require.Equal(t, "bold text", CleanComment("<b>bold</b> text"))
	require.Equal(t, "ab", CleanComment("a\x00b"))
}
