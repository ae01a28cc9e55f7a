package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

type bookOptions struct {
	baseURL    string
	token      string
	services   []string
	date       string
	start      string
	end        string
	employeeID string
	name       string
	phone      string
	email      string
	notes      string
}

// newBookCmd submits a booking through the public endpoint, the same way the
// embedded widget does. Useful as a smoke test against a running service.
func newBookCmd() *cobra.Command {
	var o bookOptions

	c := &cobra.Command{
		Use:   "book",
		Short: "Submit a public booking to a running booking-service",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
			defer cancel()

			status, body, err := submitBooking(ctx, http.DefaultClient, o)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), strings.TrimSpace(string(body)))
			if status != http.StatusCreated {
				return fmt.Errorf("booking rejected with status %d", status)
			}
			return nil
		},
	}
	f := c.Flags()
	f.StringVar(&o.baseURL, "base-url", "http://localhost:8083", "booking-service base url")
	f.StringVar(&o.token, "token", "", "share token")
	f.StringSliceVar(&o.services, "service", nil, "service id, repeat or comma separate for several")
	f.StringVar(&o.date, "date", "", "YYYY-MM-DD")
	f.StringVar(&o.start, "start", "", "HH:MM")
	f.StringVar(&o.end, "end", "", "HH:MM")
	f.StringVar(&o.employeeID, "employee", "", "employee id")
	f.StringVar(&o.name, "name", "", "client name")
	f.StringVar(&o.phone, "phone", "", "client phone")
	f.StringVar(&o.email, "email", "", "client email")
	f.StringVar(&o.notes, "notes", "", "notes")
	for _, name := range []string{"token", "service", "date", "start", "end", "employee", "name", "phone"} {
		_ = c.MarkFlagRequired(name)
	}
	return c
}

func submitBooking(ctx context.Context, client *http.Client, o bookOptions) (int, []byte, error) {
	type serviceRef struct {
		ID string `json:"id"`
	}
	services := make([]serviceRef, 0, len(o.services))
	for _, id := range o.services {
		services = append(services, serviceRef{ID: id})
	}
	payload := map[string]any{
		"token":      o.token,
		"services":   services,
		"date":       o.date,
		"start":      o.start,
		"end":        o.end,
		"employeeId": o.employeeID,
		"client": map[string]string{
			"name":  o.name,
			"phone": o.phone,
			"email": o.email,
		},
		"notes": o.notes,
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return 0, nil, err
	}

	url := strings.TrimRight(o.baseURL, "/") + "/api/v1/public/bookings"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(raw))
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("post %s: %w", url, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return 0, nil, err
	}
	return resp.StatusCode, body, nil
}
