package service

import (
	"strings"
	"unicode"
)

// commonPasswordFragments are rejected as substrings, case-insensitively.
var commonPasswordFragments = []string{"password", "1234", "qwerty", "admin", "letmein", "iloveyou"}

// EvaluatePassword scores a candidate password from 0 (unusable) to 4
// (strong) and returns recommendations for every unmet criterion, in a fixed
// order. The evaluation is pure: same input, same output, no side effects.
//
// One raw point is awarded for each of: length >= 8, length >= 12 (bonus
// only, no recommendation), a lowercase letter, an uppercase letter, a
// digit, a special character. A match against the common-fragment denylist
// subtracts two raw points with a floor of one. The raw total is then
// normalized to 0..4 by dividing by 1.5 and truncating.
func EvaluatePassword(pw string) (int, []string) {
	if pw == "" {
		return 0, []string{"Enter a password"}
	}

	var recommendations []string
	raw := 0

	runes := []rune(pw)
	if len(runes) >= 8 {
		raw++
	} else {
		recommendations = append(recommendations, "Make it at least 8 characters long")
	}
	if len(runes) >= 12 {
		raw++
	}

	var hasLower, hasUpper, hasDigit, hasSpecial bool
	for _, r := range runes {
		switch {
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsDigit(r):
			hasDigit = true
		default:
			if !unicode.IsLetter(r) && !unicode.IsNumber(r) {
				hasSpecial = true
			}
		}
	}

	if hasLower {
		raw++
	} else {
		recommendations = append(recommendations, "Add lowercase letters")
	}
	if hasUpper {
		raw++
	} else {
		recommendations = append(recommendations, "Add uppercase letters")
	}
	if hasDigit {
		raw++
	} else {
		recommendations = append(recommendations, "Add digits")
	}
	if hasSpecial {
		raw++
	} else {
		recommendations = append(recommendations, "Add special characters (e.g. !@#$%)")
	}

	if containsCommonFragment(pw) {
		recommendations = append(recommendations, "Avoid common words or sequences")
		raw -= 2
		if raw < 1 {
			raw = 1
		}
	}

	score := int(float64(raw) / 1.5)
	if score < 0 {
		score = 0
	}
	if score > 4 {
		score = 4
	}
	return score, recommendations
}

func containsCommonFragment(pw string) bool {
	lower := strings.ToLower(pw)
	for _, fragment := range commonPasswordFragments {
		if strings.Contains(lower, fragment) {
			return true
		}
	}
	return false
}
