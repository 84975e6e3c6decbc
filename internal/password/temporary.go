package password

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

const (
	upperChars   = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	lowerChars   = "abcdefghijklmnopqrstuvwxyz"
	digitChars   = "0123456789"
	tempSpecials = "!@#$%^&*"
	allTempChars = upperChars + lowerChars + digitChars + tempSpecials
)

// DefaultTemporaryLength is the length GenerateTemporary uses for n <= 0.
const DefaultTemporaryLength = 12

// GenerateTemporary returns a random password of n characters that passes
// DefaultPolicy().Validate. n is raised to the policy minimum when shorter.
func GenerateTemporary(n int) (string, error) {
	p := DefaultPolicy()
	if n <= 0 {
		n = DefaultTemporaryLength
	}
	if n < p.MinLength {
		n = p.MinLength
	}
	if n > p.MaxLength {
		n = p.MaxLength
	}

	// A shuffle can still land on a denied prefix such as "abc"; draw again.
	for {
		pw, err := generate(n)
		if err != nil {
			return "", err
		}
		if p.Validate(pw).Valid {
			return pw, nil
		}
	}
}

func generate(n int) (string, error) {
	buf := make([]byte, 0, n)
	for _, set := range []string{upperChars, lowerChars, digitChars, tempSpecials} {
		c, err := pick(set)
		if err != nil {
			return "", err
		}
		buf = append(buf, c)
	}
	for len(buf) < n {
		c, err := pick(allTempChars)
		if err != nil {
			return "", err
		}
		buf = append(buf, c)
	}

	// Fisher-Yates.
	for i := len(buf) - 1; i > 0; i-- {
		j, err := randInt(i + 1)
		if err != nil {
			return "", err
		}
		buf[i], buf[j] = buf[j], buf[i]
	}
	return string(buf), nil
}

func pick(set string) (byte, error) {
	i, err := randInt(len(set))
	if err != nil {
		return 0, err
	}
	return set[i], nil
}

func randInt(n int) (int, error) {
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return 0, fmt.Errorf("read random: %w", err)
	}
	return int(v.Int64()), nil
}
