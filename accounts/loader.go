// Package accounts reads the credential file.
//
// The format is one "identifier,secret" pair per line. Blank lines and
// lines starting with '#' are ignored. Only the first comma splits, so
// secrets may contain commas.
package accounts

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/use-agent/dailyclaim/models"
)

// Load reads credentials from path. It returns the valid credentials in
// file order and the number of malformed lines that were skipped. When the
// file cannot be read it returns no credentials and the error.
func Load(path string) ([]models.Credential, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, models.NewCheckinError(models.ErrCodeConfig, "cannot open credential file", err)
	}
	defer f.Close()

	creds, skipped, err := Parse(f)
	if err != nil {
		return nil, 0, models.NewCheckinError(models.ErrCodeConfig, "cannot read credential file", err)
	}

	slog.Info("credentials loaded", "path", path, "accounts", len(creds), "skipped", skipped)
	return creds, skipped, nil
}

// Parse reads credentials from r.
func Parse(r io.Reader) ([]models.Credential, int, error) {
	var (
		creds   []models.Credential
		skipped int
		lineNo  int
	)

	sc := bufio.NewScanner(r)
	for sc.Scan() {
		lineNo++
		line := sc.Text()
		if lineNo == 1 {
			line = strings.TrimPrefix(line, "\ufeff")
		}
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		cred, err := parseLine(line)
		if err != nil {
			skipped++
			slog.Warn("skipping malformed credential line", "line", lineNo, "reason", err.Error())
			continue
		}
		cred.Line = lineNo
		creds = append(creds, cred)
	}
	if err := sc.Err(); err != nil {
		return nil, 0, err
	}
	return creds, skipped, nil
}

func parseLine(line string) (models.Credential, error) {
	id, secret, ok := strings.Cut(line, ",")
	if !ok {
		return models.Credential{}, fmt.Errorf("missing comma separator")
	}
	id, secret = strings.TrimSpace(id), strings.TrimSpace(secret)
	if id == "" || secret == "" {
		return models.Credential{}, fmt.Errorf("empty identifier or secret")
	}
	return models.Credential{Identifier: id, Secret: secret}, nil
}
