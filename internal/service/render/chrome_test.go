package render_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/go-rod/rod/lib/launcher"

	"docforge/internal/model"
	"docforge/internal/service/render"
)

func TestRasterizeMissingBinary(t *testing.T) {
	c := render.NewChrome(filepath.Join(t.TempDir(), "no-chrome"), 5*time.Second)
	_, err := c.Rasterize(context.Background(), "<html><body>x</body></html>")
	if !errors.Is(err, render.ErrRasterize) {
		t.Fatalf("err=%v, want ErrRasterize", err)
	}
}

func TestAvailableMissingBinary(t *testing.T) {
	c := render.NewChrome(filepath.Join(t.TempDir(), "no-chrome"), 0)
	if c.Available() {
		t.Fatalf("missing binary reported as available")
	}
}

func TestNewChromeDefaults(t *testing.T) {
	c := render.NewChrome("  ", 0)
	if c.Bin != "" || c.Timeout != render.DefaultTimeout {
		t.Fatalf("chrome=%+v", c)
	}
}

func TestRasterizeProducesPDF(t *testing.T) {
	bin, ok := launcher.LookPath()
	if !ok {
		t.Skip("chrome not installed")
	}
	c := render.NewChrome(bin, 60*time.Second)
	pdf, err := c.Rasterize(context.Background(), `<!DOCTYPE html><html><body><table><tr><td style="background:#F2F2F2">業務名</td></tr></table></body></html>`)
	if err != nil {
		t.Fatalf("Rasterize: %v", err)
	}
	if !bytes.HasPrefix(pdf, []byte("%PDF")) {
		t.Fatalf("output is not a pdf: %q", pdf[:min(len(pdf), 16)])
	}
}

var pageObject = regexp.MustCompile(`/Type\s*/Page\b`)

func TestRasterizeOverflowingTableKeepsOnePage(t *testing.T) {
	bin, ok := launcher.LookPath()
	if !ok {
		t.Skip("chrome not installed")
	}
	var rows strings.Builder
	for i := 0; i < 200; i++ {
		fmt.Fprintf(&rows, "<tr style=\"height: 20pt\"><td>%d</td><td>明細</td></tr>", i+1)
	}
	markup := `<!DOCTYPE html><html><head><style>@page { size: A4 portrait; margin: 10mm; }</style></head><body><table>` +
		rows.String() + `</table></body></html>`

	c := render.NewChrome(bin, 60*time.Second)
	out, err := c.Rasterize(context.Background(), model.Markup(markup))
	if err != nil {
		t.Fatalf("Rasterize: %v", err)
	}
	if n := len(pageObject.FindAll(out, -1)); n != 1 {
		t.Fatalf("pages=%d, want 1", n)
	}
}
