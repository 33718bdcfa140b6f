package utils

// MaskToken masks a secret token for display. At most four characters stay
// visible at each end, and never more than half the token.
func MaskToken(token string) string {
	visible := (len(token) - 8) / 2
	if visible > 4 {
		visible = 4
	}
	if visible <= 0 {
		return "****"
	}
	return token[:visible] + "****" + token[len(token)-visible:]
}
