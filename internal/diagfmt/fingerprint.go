package diagfmt

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"nodeproto/internal/diag"
)

// fingerprint хэширует строку без пробелов по краям вместе с кодом,
// чтобы результат переживал сдвиг строк.
func fingerprint(line string, code diag.Code) string {
	sum := sha256.Sum256([]byte(code.ID() + ":" + strings.TrimSpace(line)))
	return hex.EncodeToString(sum[:8])
}
