// Command bankctl is a terminal client for the blood bank API.
//
//	bankctl [-server URL] <command> [flags]
//
// The session is kept in the user config directory between runs.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"text/tabwriter"

	"golang.org/x/term"

	"github.com/iliyamo/bloodbank/internal/client"
)

// readPassword is a test seam for term.ReadPassword.
var readPassword = term.ReadPassword

const usage = `usage: bankctl [-server URL] <command>

commands:
  register     create an account and sign in
  login        sign in
  logout       forget the stored session
  whoami       show the signed-in user and eligibility
  inventory    list stock per blood group
  donations    list your donation history   [-page N -size N -year Y -center C -status S]
  eligibility  show when you can donate next
  donate       record a donation            -center C -ml N [-date YYYY-MM-DD -donor ID]
  request      request blood                -patient P -group G -ml N -hospital H [-date YYYY-MM-DD]
`

func main() {
	server := flag.String("server", envOr("BLOODBANK_URL", "http://localhost:8080"), "API base URL")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()

	path, err := client.DefaultSessionPath()
	if err != nil {
		log.Fatalf("session path: %v", err)
	}
	c := client.New(*server, client.FileStore{Path: path})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	app := &app{c: c, in: bufio.NewReader(os.Stdin), out: os.Stdout, stdinFd: int(os.Stdin.Fd())}
	if err := app.run(ctx, flag.Args()); err != nil {
		var apiErr *client.APIError
		if errors.As(err, &apiErr) {
			fmt.Fprintln(os.Stderr, "error:", apiErr.Message)
		} else {
			fmt.Fprintln(os.Stderr, "error:", err)
		}
		os.Exit(1)
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

type app struct {
	c       *client.Client
	in      *bufio.Reader
	out     io.Writer
	stdinFd int
}

var errUsage = errors.New("unknown command; run bankctl -h")

func (a *app) run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errUsage
	}
	cmd, rest := args[0], args[1:]
	switch cmd {
	case "register":
		return a.register(ctx, rest)
	case "login":
		return a.login(ctx, rest)
	case "logout":
		if err := a.c.Logout(); err != nil {
			return err
		}
		fmt.Fprintln(a.out, "Signed out.")
		return nil
	case "whoami":
		return a.whoami(ctx)
	case "inventory":
		return a.inventory(ctx)
	case "donations":
		return a.donations(ctx, rest)
	case "eligibility":
		return a.eligibility(ctx)
	case "donate":
		return a.donate(ctx, rest)
	case "request":
		return a.request(ctx, rest)
	}
	return errUsage
}

func (a *app) prompt(label string) (string, error) {
	fmt.Fprint(a.out, label+": ")
	line, err := a.in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func (a *app) password() (string, error) {
	fmt.Fprint(a.out, "Password: ")
	pw, err := readPassword(a.stdinFd)
	fmt.Fprintln(a.out)
	if err != nil {
		return "", err
	}
	return string(pw), nil
}

func (a *app) register(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("register", flag.ContinueOnError)
	role := fs.String("role", "", "User or Staff")
	group := fs.String("group", "", "blood group, e.g. O-")
	if err := fs.Parse(args); err != nil {
		return err
	}
	name, err := a.prompt("Name")
	if err != nil {
		return err
	}
	email, err := a.prompt("Email")
	if err != nil {
		return err
	}
	pw, err := a.password()
	if err != nil {
		return err
	}
	s, err := a.c.Register(ctx, client.RegisterInput{Name: name, Email: email, Password: pw, Role: *role, BloodGroup: *group})
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Welcome, %s (%s).\n", s.User.Name, s.User.Role)
	return nil
}

func (a *app) login(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	email := fs.String("email", "", "account email")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *email == "" {
		v, err := a.prompt("Email")
		if err != nil {
			return err
		}
		*email = v
	}
	pw, err := a.password()
	if err != nil {
		return err
	}
	s, err := a.c.Login(ctx, *email, pw)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Signed in as %s (%s).\n", s.User.Email, s.User.Role)
	return nil
}

func (a *app) whoami(ctx context.Context) error {
	p, err := a.c.Profile(ctx)
	if err != nil {
		return err
	}
	u := p.User
	fmt.Fprintf(a.out, "%s <%s>\nrole: %s\nblood group: %s\n", u.Name, u.Email, u.Role, orDash(u.BloodGroup))
	printEligibility(a.out, p.Eligibility)
	return nil
}

func (a *app) inventory(ctx context.Context) error {
	inv, err := a.c.Inventory(ctx)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "GROUP\tTOTAL (ml)")
	for _, e := range inv {
		fmt.Fprintf(tw, "%s\t%d\n", e.BloodGroup, e.TotalML)
	}
	return tw.Flush()
}

func (a *app) donations(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("donations", flag.ContinueOnError)
	var q client.DonationQuery
	fs.IntVar(&q.Page, "page", 0, "page number")
	fs.IntVar(&q.PageSize, "size", 0, "page size (5, 10 or 25)")
	fs.IntVar(&q.Year, "year", 0, "donation year")
	fs.StringVar(&q.Center, "center", "", "donation center")
	fs.StringVar(&q.Status, "status", "", "available, used or expired")
	if err := fs.Parse(args); err != nil {
		return err
	}
	page, err := a.c.Donations(ctx, q)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tDATE\tGROUP\tML\tCENTER\tSTATUS")
	for _, d := range page.Donations {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%s\t%s\n", d.ID, d.DonatedOn, d.BloodGroup, d.QuantityML, d.Center, d.Status)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	p := page.Pagination
	fmt.Fprintf(a.out, "page %d of %d (%d donations)\n", p.Page, p.TotalPages, p.Total)
	return nil
}

func (a *app) eligibility(ctx context.Context) error {
	e, err := a.c.Eligibility(ctx)
	if err != nil {
		return err
	}
	printEligibility(a.out, e)
	return nil
}

func printEligibility(w io.Writer, e client.Eligibility) {
	if e.Eligible {
		fmt.Fprintln(w, "You are eligible to donate.")
	} else {
		fmt.Fprintf(w, "Next eligible date: %s\n", e.NextEligibleDate)
	}
	if e.LastDonationDate != nil && e.DaysSinceLast != nil {
		fmt.Fprintf(w, "Last donation: %s (%d days ago)\n", *e.LastDonationDate, *e.DaysSinceLast)
	}
}

func (a *app) donate(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("donate", flag.ContinueOnError)
	var in client.NewDonation
	fs.StringVar(&in.Center, "center", "", "donation center")
	fs.IntVar(&in.QuantityML, "ml", 450, "volume in ml")
	fs.StringVar(&in.DonatedOn, "date", "", "donation date, default today")
	fs.Uint64Var(&in.DonorID, "donor", 0, "donor id (staff only)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	d, err := a.c.Donate(ctx, in)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Recorded donation #%d: %d ml %s on %s.\n", d.ID, d.QuantityML, d.BloodGroup, d.DonatedOn)
	return nil
}

func (a *app) request(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("request", flag.ContinueOnError)
	var in client.NewRequest
	fs.StringVar(&in.PatientName, "patient", "", "patient name")
	fs.StringVar(&in.BloodGroup, "group", "", "blood group")
	fs.IntVar(&in.RequestedML, "ml", 0, "volume in ml")
	fs.StringVar(&in.Hospital, "hospital", "", "hospital")
	fs.StringVar(&in.RequestedOn, "date", "", "request date, default today")
	if err := fs.Parse(args); err != nil {
		return err
	}
	r, err := a.c.RequestBlood(ctx, in)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Request #%d filed: %d ml %s for %s (%s).\n", r.ID, r.RequestedML, r.BloodGroup, r.PatientName, r.Status)
	return nil
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
