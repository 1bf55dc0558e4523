package stderr

import (
	"bufio"
	"io"
	"strings"

	"github.com/rs/zerolog"
)

// forward logs every non-blank line of r at warn level until r ends.
func forward(r io.Reader, logger zerolog.Logger) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		logger.Warn().Str("source", "stderr").Msg(line)
	}
}
