package userstore

import (
	"bytes"
	"encoding/csv"
	"io"
	"log/slog"
	"strconv"
	"time"
)

// Identity is one registered reviewer. Records are immutable after
// registration and keyed by email.
type Identity struct {
	Email           string    `json:"email"`
	UserID          string    `json:"userId"`
	ReviewerVersion int       `json:"reviewerVersion"`
	RegisteredAt    time.Time `json:"registrationDate"`
}

var csvHeader = []string{"email", "userId", "reviewerVersion", "registrationDate"}

// encodeRoster serializes identities into a csv table. The header row is
// always present, even for an empty roster.
func encodeRoster(identities []Identity) (string, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	err := w.Write(csvHeader)
	if err != nil {
		return "", err
	}
	for _, id := range identities {
		err := w.Write([]string{
			id.Email,
			id.UserID,
			strconv.Itoa(id.ReviewerVersion),
			id.RegisteredAt.UTC().Format(time.RFC3339),
		})
		if err != nil {
			return "", err
		}
	}
	w.Flush()
	return buf.String(), w.Error()
}

// decodeRoster parses the csv table back into identities. Rows with an
// irregular field count or unparsable fields are skipped rather than
// failing the whole roster.
func decodeRoster(blob string) []Identity {
	r := csv.NewReader(bytes.NewBufferString(blob))
	r.FieldsPerRecord = -1

	var identities []Identity
	first := true
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			slog.Warn("skipping malformed roster row", "err", err)
			continue
		}
		if first {
			first = false
			continue
		}
		if len(record) != len(csvHeader) {
			slog.Warn("skipping roster row with irregular field count", "fields", len(record))
			continue
		}

		version, err := strconv.Atoi(record[2])
		if err != nil {
			slog.Warn("skipping roster row with bad reviewer version", "value", record[2])
			continue
		}
		registeredAt, err := time.Parse(time.RFC3339, record[3])
		if err != nil {
			slog.Warn("skipping roster row with bad registration date", "value", record[3])
			continue
		}

		identities = append(identities, Identity{
			Email:           record[0],
			UserID:          record[1],
			ReviewerVersion: version,
			RegisteredAt:    registeredAt,
		})
	}
	return identities
}
