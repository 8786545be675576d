package testrunner

import (
	"bytes"
	"context"
	"testing"

	"github.com/mariabak-dev/mariabak/internal/testutil"
)

func TestUnstartableOutputGolden(t *testing.T) {
	plainColors(t)

	var buf bytes.Buffer

	runner := New(&buf)
	_ = runner.Run(context.Background(), "definitely-not-a-real-binary-xyz")

	testutil.AssertGolden(t, buf.String(), "unstartable.golden")
}
