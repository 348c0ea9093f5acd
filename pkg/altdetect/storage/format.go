package storage

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/Bobcat00/AltDetector/pkg/altdetect"
)

// FormatMessage substitutes {0}, {1}, ... in template with args.
func FormatMessage(template string, args ...string) string {
	if len(args) == 0 {
		return template
	}
	pairs := make([]string, 0, 2*len(args))
	for i, arg := range args {
		pairs = append(pairs, "{"+strconv.Itoa(i)+"}", arg)
	}
	return strings.NewReplacer(pairs...).Replace(template)
}

// FormatAltSummary renders the alts of stableID within window. It returns
// ok=false when the player has no alts.
func FormatAltSummary(ctx context.Context, store altdetect.Store, name, stableID string, templates altdetect.Templates, window time.Duration) (summary string, ok bool, err error) {
	alts, err := store.FindCorrelatedNames(ctx, stableID, stableID, window)
	if err != nil {
		return "", false, err
	}
	if len(alts) == 0 {
		return "", false, nil
	}
	return RenderAltSummary(name, alts, templates), true, nil
}

// RenderAltSummary formats name followed by its alts.
func RenderAltSummary(name string, alts []string, templates altdetect.Templates) string {
	var b strings.Builder
	b.WriteString(FormatMessage(templates.Player, name))
	for i, alt := range alts {
		if i > 0 {
			b.WriteString(templates.Separator)
		}
		b.WriteString(FormatMessage(templates.PlayerList, alt))
	}
	return b.String()
}
