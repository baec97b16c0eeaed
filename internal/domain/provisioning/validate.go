package provisioning

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"regexp"
	"strings"
	"time"
)

var (
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phonePattern = regexp.MustCompile(`^\+?[0-9 ()-]{6,20}$`)
)

// Input is everything needed to provision one employee. Password is
// optional; when empty a random one is generated and returned to the caller
// so it can be handed to the new hire.
type Input struct {
	Email      string
	FullName   string
	Phone      string
	Password   string
	EmployeeID string
	Department string
	Position   string
	HireDate   time.Time
	Salary     *float64
}

func validateInput(in Input) error {
	var issues []string
	if !emailPattern.MatchString(strings.TrimSpace(in.Email)) {
		issues = append(issues, "email is not a valid address")
	}
	if strings.TrimSpace(in.FullName) == "" {
		issues = append(issues, "fullName is required")
	}
	if in.Phone != "" && !phonePattern.MatchString(in.Phone) {
		issues = append(issues, "phone is not a valid number")
	}
	if strings.TrimSpace(in.EmployeeID) == "" {
		issues = append(issues, "employeeId is required")
	}
	if strings.TrimSpace(in.Position) == "" {
		issues = append(issues, "position is required")
	}
	if in.HireDate.IsZero() {
		issues = append(issues, "hireDate is required")
	}
	if in.Salary != nil && *in.Salary < 0 {
		issues = append(issues, "salary must not be negative")
	}
	if len(issues) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidInput, strings.Join(issues, "; "))
	}
	return nil
}

var ErrInvalidInput = errors.New("invalid provisioning input")

const (
	upperChars = "ABCDEFGHJKLMNPQRSTUVWXYZ"
	lowerChars = "abcdefghijkmnpqrstuvwxyz"
	digitChars = "23456789"
)

// generatePassword builds a 12-character password that satisfies the account
// password policy. Ambiguous characters (0/O, 1/l) are excluded because the
// result is read out to people.
func generatePassword() (string, error) {
	all := upperChars + lowerChars + digitChars
	chars := make([]byte, 12)
	pick := func(set string) (byte, error) {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(set))))
		if err != nil {
			return 0, err
		}
		return set[n.Int64()], nil
	}

	var err error
	if chars[0], err = pick(upperChars); err != nil {
		return "", err
	}
	if chars[1], err = pick(lowerChars); err != nil {
		return "", err
	}
	if chars[2], err = pick(digitChars); err != nil {
		return "", err
	}
	for i := 3; i < len(chars); i++ {
		if chars[i], err = pick(all); err != nil {
			return "", err
		}
	}
	for i := len(chars) - 1; i > 0; i-- {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(i+1)))
		if err != nil {
			return "", err
		}
		j := n.Int64()
		chars[i], chars[j] = chars[j], chars[i]
	}
	return string(chars), nil
}
