package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"parkwatch/internal/dashboard"
	"parkwatch/internal/domain"
	"parkwatch/internal/infrastructure/logger"
	"parkwatch/internal/signals"
)

func newWatchCommand() *cobra.Command {
	var (
		apiURL   string
		adminID  string
		password string
		noFeed   bool
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Terminal dashboard that follows the REST API and the relay feed",
		Long: `watch mounts the dashboard panels against the REST API and reads commands
from stdin:

  read <alert_idx>         mark an alert read
  parking <parking_idx>    select a parking lot ("" or "all" for every lot)
  district <code> [name]   select a district
  refresh                  refetch every panel
  show                     print every panel
  quit                     exit`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if adminID == "" {
				return errors.New("--admin is required")
			}

			lCfg := logger.NewDefaultConfig()
			lCfg.Level = logger.LevelWarn
			lCfg.Output = "stderr"
			log := logger.NewLogrusLogger(lCfg)

			ctx := WithSignal(cmd.Context())

			client := dashboard.NewClient(apiURL, nil)
			if password != "" {
				res, err := client.Login(ctx, adminID, password)
				if err != nil {
					return fmt.Errorf("login: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "logged in as %s (%s)\n", res.AdminName, res.Role)
			}

			c := newConsole(client, adminID, cmd.OutOrStdout(), log)
			c.mount(ctx)
			defer c.unmount()

			if !noFeed {
				wsURL, err := feedURL(apiURL)
				if err != nil {
					return err
				}
				feed, err := dashboard.DialFeed(ctx, wsURL, log)
				if err != nil {
					log.Warnf("relay feed unavailable: %v", err)
				} else {
					defer feed.Close()
					go func() {
						if err := feed.Listen(ctx, c.printFeed); err != nil {
							log.Warnf("relay feed closed: %v", err)
						}
					}()
				}
			}

			return c.run(ctx, cmd.InOrStdin())
		},
	}

	cmd.Flags().StringVar(&apiURL, "api", "http://localhost:8080", "base URL of the parkwatch API")
	cmd.Flags().StringVar(&adminID, "admin", "", "admin id whose alerts are counted")
	cmd.Flags().StringVar(&password, "password", "", "log in with this password before watching")
	cmd.Flags().BoolVar(&noFeed, "no-feed", false, "do not subscribe to the relay feed")
	return cmd
}

// feedURL turns the API base URL into the relay endpoint.
func feedURL(apiURL string) (string, error) {
	u, err := url.Parse(apiURL)
	if err != nil {
		return "", fmt.Errorf("parse --api: %w", err)
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/ws"
	return u.String(), nil
}

// console renders the dashboard views as text lines and runs the commands
// typed on stdin.
type console struct {
	views   *dashboard.Views
	actions *dashboard.Actions

	mu  sync.Mutex
	out io.Writer
}

func newConsole(api dashboard.API, adminID string, out io.Writer, log logger.Logger) *console {
	bus := signals.NewBus(log)
	sel := dashboard.NewSelection(bus)

	c := &console{
		views:   dashboard.NewViews(api, sel, adminID, bus, log),
		actions: dashboard.NewActions(api, sel, bus, log),
		out:     out,
	}

	c.views.UnreadAlerts.OnChange(func(s dashboard.Snapshot[int]) {
		c.render("unread", s.Err, func() string { return strconv.Itoa(s.Data) })
	})
	c.views.Summary.OnChange(func(s dashboard.Snapshot[domain.Summary]) {
		c.render("summary", s.Err, func() string { return formatSummary(s.Data) })
	})
	c.views.ParkingStatus.OnChange(func(s dashboard.Snapshot[[]domain.ParkingSpace]) {
		c.render("status", s.Err, func() string { return formatSpaces(s.Data) })
	})
	c.views.Lots.OnChange(func(s dashboard.Snapshot[[]domain.ParkingLot]) {
		c.render("lots", s.Err, func() string { return formatLots(s.Data) })
	})
	c.views.Logs.OnChange(func(s dashboard.Snapshot[domain.ParkingLogPage]) {
		c.render("logs", s.Err, func() string {
			return fmt.Sprintf("%d entries, %d total", len(s.Data.Items), s.Data.Pagination.TotalItems)
		})
	})
	c.views.Violations.OnChange(func(s dashboard.Snapshot[domain.ViolationPage]) {
		c.render("violations", s.Err, func() string {
			return fmt.Sprintf("%d shown, %d total", len(s.Data.Data), s.Data.Pagination.TotalItems)
		})
	})

	return c
}

func (c *console) mount(ctx context.Context) { c.views.MountAll(ctx) }

func (c *console) unmount() { c.views.UnmountAll() }

func (c *console) render(panel string, err error, body func() string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		fmt.Fprintf(c.out, "[%s] error: %v\n", panel, err)
		return
	}
	fmt.Fprintf(c.out, "[%s] %s\n", panel, body())
}

func (c *console) printFeed(doc json.RawMessage) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.out, "[feed] %s\n", doc)
}

func (c *console) run(ctx context.Context, in io.Reader) error {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			quit, err := c.exec(ctx, line)
			if err != nil {
				c.mu.Lock()
				fmt.Fprintf(c.out, "error: %v\n", err)
				c.mu.Unlock()
			}
			if quit {
				return nil
			}
		}
	}
}

func (c *console) exec(ctx context.Context, line string) (bool, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false, nil
	}

	switch fields[0] {
	case "quit", "exit":
		return true, nil

	case "read":
		if len(fields) != 2 {
			return false, errors.New("usage: read <alert_idx>")
		}
		idx, err := strconv.ParseInt(fields[1], 10, 64)
		if err != nil || idx <= 0 {
			return false, fmt.Errorf("invalid alert id %q", fields[1])
		}
		return false, c.actions.MarkAlertRead(ctx, idx)

	case "parking":
		parking := ""
		if len(fields) > 1 && fields[1] != "all" {
			if _, err := strconv.ParseInt(fields[1], 10, 64); err != nil {
				return false, fmt.Errorf("invalid parking id %q", fields[1])
			}
			parking = fields[1]
		}
		c.actions.SelectParking(parking)
		return false, nil

	case "district":
		if len(fields) < 2 {
			return false, errors.New("usage: district <code> [name]")
		}
		c.actions.SelectDistrict(signals.District{Code: fields[1], Name: strings.Join(fields[2:], " ")})
		return false, nil

	case "refresh":
		for _, done := range []<-chan struct{}{
			c.views.UnreadAlerts.Refresh(),
			c.views.Summary.Refresh(),
			c.views.ParkingStatus.Refresh(),
			c.views.Lots.Refresh(),
			c.views.Logs.Refresh(),
			c.views.Violations.Refresh(),
		} {
			<-done
		}
		return false, nil

	case "show":
		c.show()
		return false, nil
	}

	return false, fmt.Errorf("unknown command %q", fields[0])
}

func (c *console) show() {
	unread := c.views.UnreadAlerts.Snapshot()
	c.render("unread", unread.Err, func() string { return strconv.Itoa(unread.Data) })
	summary := c.views.Summary.Snapshot()
	c.render("summary", summary.Err, func() string { return formatSummary(summary.Data) })
	status := c.views.ParkingStatus.Snapshot()
	c.render("status", status.Err, func() string { return formatSpaces(status.Data) })
	lots := c.views.Lots.Snapshot()
	c.render("lots", lots.Err, func() string { return formatLots(lots.Data) })
}

func formatSummary(s domain.Summary) string {
	return fmt.Sprintf("general %d/%d, disabled %d/%d, violations today %d",
		s.GeneralParking.Current, s.GeneralParking.Total,
		s.DisabledParking.Current, s.DisabledParking.Total,
		s.TodayViolations)
}

func formatSpaces(spaces []domain.ParkingSpace) string {
	occupied := 0
	for _, s := range spaces {
		if s.IsOccupied {
			occupied++
		}
	}
	return fmt.Sprintf("%d/%d occupied", occupied, len(spaces))
}

func formatLots(lots []domain.ParkingLot) string {
	names := make([]string, 0, len(lots))
	for _, l := range lots {
		names = append(names, fmt.Sprintf("%d:%s", l.ParkingIdx, l.ParkingLoc))
	}
	return strings.Join(names, ", ")
}
