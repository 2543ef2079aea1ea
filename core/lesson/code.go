package lesson

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
)

// codeSeqWidth is the zero-padded width of the per-year sequence in a lesson code.
const codeSeqWidth = 4

// FormatCode builds a lesson code: prefix, calendar year, then a 4-digit
// sequence ("LSN20240001").
func FormatCode(prefix string, year, seq int) string {
	return fmt.Sprintf("%s%d%0*d", prefix, year, codeSeqWidth, seq)
}

// nextCodes reserves n consecutive codes continuing just after the current
// year's highest sequence. Codes come back strictly increasing and gap-free.
func (svc *service) nextCodes(ctx context.Context, n int, now time.Time, exec ...core.DBExecutor) ([]string, error) {
	year := now.Year()
	prefix := svc.conf.Lesson.CodePrefix

	seq, err := svc.repo.MaxCodeSeq(ctx, prefix, year, exec...)
	if err != nil {
		return nil, errors.Wrap(err, "getting max lesson code sequence")
	}

	codes := make([]string, 0, n)
	for i := 1; i <= n; i++ {
		codes = append(codes, FormatCode(prefix, year, seq+i))
	}
	return codes, nil
}
