// Package cli is the interactive terminal front end of the client.
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"text/tabwriter"

	"go.uber.org/zap"

	"estatehub/internal/client/app"
	"estatehub/internal/client/authz"
	"estatehub/internal/client/backend"
	"estatehub/internal/client/notice"
	"estatehub/internal/core/access"
	"estatehub/internal/core/domain"
	"estatehub/internal/core/payment"
	"estatehub/internal/pkg/logger"
)

// PasswordReader reads a secret without echoing it
type PasswordReader func(prompt string) (string, error)

// CLI is a line-oriented REPL over an App
type CLI struct {
	app          *app.App
	out          *Printer
	in           *bufio.Scanner
	readPassword PasswordReader
	logger       *zap.Logger
}

// New creates a CLI. readPassword may be nil, in which case secrets are
// read as plain lines from in.
func New(a *app.App, out *Printer, in io.Reader, readPassword PasswordReader, log *zap.Logger) *CLI {
	c := &CLI{
		app:    a,
		out:    out,
		in:     bufio.NewScanner(in),
		logger: logger.OrNop(log),
	}
	c.readPassword = readPassword
	if c.readPassword == nil {
		c.readPassword = c.prompt
	}
	return c
}

type command struct {
	usage string
	help  string
	run   func(ctx context.Context, args []string) error
}

func (c *CLI) commands() map[string]command {
	return map[string]command{
		"help":     {"help", "show this list", c.help},
		"signin":   {"signin <email>", "sign in", c.signIn},
		"signup":   {"signup <email>", "create an account", c.signUp},
		"signout":  {"signout", "sign out", c.signOut},
		"whoami":   {"whoami", "show session and role", c.whoami},
		"listings": {"listings [sale|rent] [search...]", "browse listings", c.listings},
		"show":     {"show <id>", "show one listing", c.show},
		"cart":     {"cart", "show your cart", c.cart},
		"add":      {"add <id>", "add a listing to your cart", c.add},
		"remove":   {"remove <id>", "remove a listing from your cart", c.remove},
		"clear":    {"clear", "empty your cart", c.clear},
		"checkout": {"checkout [months]", "estimate payment for your cart", c.checkout},
		"fav":      {"fav [add|rm <id>]", "list or change favorites", c.favorites},
		"profile":  {"profile [set <field> <value>]", "show or edit your profile", c.profile},
		"go":       {"go <route>", "check access to a route", c.navigate},
		"admin":    {"admin users|role|create|delete|upload ...", "admin tools", c.admin},
	}
}

// Run reads commands until quit or end of input
func (c *CLI) Run(ctx context.Context) error {
	c.out.Printf("estatehub client, type 'help' for commands\n")
	for {
		c.out.Printf("estatehub> ")
		if !c.in.Scan() {
			c.out.Printf("\n")
			return c.in.Err()
		}
		quit, err := c.Exec(ctx, c.in.Text())
		if err != nil {
			c.report(err)
		}
		if quit {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}

// Exec runs a single command line
func (c *CLI) Exec(ctx context.Context, line string) (bool, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false, nil
	}
	name, args := strings.ToLower(fields[0]), fields[1:]
	if name == "quit" || name == "exit" {
		return true, nil
	}
	cmd, ok := c.commands()[name]
	if !ok {
		return false, fmt.Errorf("unknown command %q, try 'help'", name)
	}
	return false, cmd.run(ctx, args)
}

// report prints errors that were not already shown as notices
func (c *CLI) report(err error) {
	var n *notice.Notice
	if errors.As(err, &n) {
		return
	}
	c.logger.Debug("command failed", zap.Error(err))
	if backendErr := (*backend.Error)(nil); errors.As(err, &backendErr) {
		c.out.Notify(notice.FromBackend(err))
		return
	}
	c.out.Printf("✖ %s\n", err)
}

func (c *CLI) prompt(label string) (string, error) {
	c.out.Printf("%s", label)
	if !c.in.Scan() {
		if err := c.in.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return strings.TrimSpace(c.in.Text()), nil
}

func usage(u string) error { return fmt.Errorf("usage: %s", u) }

func (c *CLI) help(context.Context, []string) error {
	cmds := c.commands()
	names := []string{"signin", "signup", "signout", "whoami", "listings", "show", "cart", "add", "remove", "clear", "checkout", "fav", "profile", "go", "admin", "help"}
	w := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	for _, name := range names {
		fmt.Fprintf(w, "  %s\t%s\n", cmds[name].usage, cmds[name].help)
	}
	fmt.Fprintf(w, "  quit\tleave\n")
	return w.Flush()
}

func (c *CLI) signIn(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return usage("signin <email>")
	}
	password, err := c.readPassword("Password: ")
	if err != nil {
		return err
	}
	if err := c.app.Session.SignIn(ctx, args[0], password); err != nil {
		return err
	}
	return c.whoami(ctx, nil)
}

func (c *CLI) signUp(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return usage("signup <email>")
	}
	password, err := c.readPassword("Password: ")
	if err != nil {
		return err
	}
	fullName, err := c.prompt("Full name: ")
	if err != nil {
		return err
	}
	phone, err := c.prompt("Phone: ")
	if err != nil {
		return err
	}
	if err := c.app.Session.SignUp(ctx, args[0], password, fullName, phone); err != nil {
		return err
	}
	return c.whoami(ctx, nil)
}

func (c *CLI) signOut(ctx context.Context, _ []string) error {
	c.app.Session.SignOut(ctx)
	c.out.Printf("Signed out\n")
	return nil
}

func (c *CLI) whoami(context.Context, []string) error {
	snap := c.app.Session.Current()
	if !snap.SignedIn() {
		c.out.Printf("Not signed in (%s)\n", snap.State)
		return nil
	}
	role := "unknown"
	if p := c.app.Profiles.Current(); p != nil {
		role = access.RoleLabel(p.Role)
	}
	c.out.Printf("Signed in as %s (%s), session valid until %s\n",
		snap.User.Email, role, snap.ExpiresAt.Local().Format("2006-01-02 15:04"))
	return nil
}

func (c *CLI) listings(ctx context.Context, args []string) error {
	var filter domain.ListingFilter
	if len(args) > 0 {
		if cat := domain.Category(strings.ToLower(args[0])); cat.IsValid() {
			filter.Category = cat
			args = args[1:]
		}
	}
	filter.Search = strings.Join(args, " ")

	listings, err := c.app.Backend.Listings.List(ctx, filter)
	if err != nil {
		return err
	}
	if len(listings) == 0 {
		c.out.Printf("No listings found\n")
		return nil
	}

	w := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "ID\tTITLE\tLOCATION\tCATEGORY\tPRICE\tBEDS\t\n")
	for _, l := range listings {
		mark := ""
		if c.app.Cart.Contains(l.ID) {
			mark = " 🛒"
		}
		fmt.Fprintf(w, "%s\t%s%s\t%s\t%s\t%s\t%d\t\n", l.ID, l.Title, mark, l.Location, l.Category, money(l.Price), l.Beds)
	}
	return w.Flush()
}

func (c *CLI) show(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return usage("show <id>")
	}
	l, err := c.app.Backend.Listings.Get(ctx, args[0])
	if err != nil {
		return err
	}
	c.out.Printf("%s\n  %s\n  %s, %s\n  %d beds, %d baths, %.0f m²\n  %s\n",
		l.Title, l.Description, l.Location, l.Category, l.Beds, l.Baths, l.Area, money(l.Price))
	for _, img := range l.Images {
		c.out.Printf("  image: %s\n", img)
	}
	if c.app.Cart.Contains(l.ID) {
		c.out.Printf("  (in your cart)\n")
	}
	return nil
}

func (c *CLI) cart(ctx context.Context, _ []string) error {
	if ok, err := c.allowed(ctx, "cart"); !ok {
		return err
	}
	items := c.app.Cart.Items()
	if len(items) == 0 {
		c.out.Printf("Your cart is empty\n")
		return nil
	}
	w := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	for _, it := range items {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t\n", it.Listing.ID, it.Listing.Title, it.Listing.Category, money(it.Listing.Price))
	}
	fmt.Fprintf(w, "\tTOTAL\t\t%s\t\n", money(c.app.Cart.Total()))
	return w.Flush()
}

func (c *CLI) add(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return usage("add <id>")
	}
	return c.app.Cart.Add(ctx, args[0])
}

func (c *CLI) remove(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return usage("remove <id>")
	}
	return c.app.Cart.Remove(ctx, args[0])
}

func (c *CLI) clear(ctx context.Context, _ []string) error {
	return c.app.Cart.Clear(ctx)
}

func (c *CLI) checkout(ctx context.Context, args []string) error {
	months := 0
	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil {
			return usage("checkout [months]")
		}
		months = n
	}
	b, err := c.app.Checkout(ctx, months)
	if err != nil {
		return err
	}
	printBreakdown(c.out, b)
	return nil
}

func printBreakdown(out io.Writer, b payment.Breakdown) {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', tabwriter.AlignRight)
	if b.HasRental {
		fmt.Fprintf(w, "Monthly rent\t%s\t\n", money(b.Rental.MonthlyRent))
		fmt.Fprintf(w, "Security deposit\t%s\t\n", money(b.Rental.SecurityDeposit))
		fmt.Fprintf(w, "Application fee\t%s\t\n", money(b.Rental.ApplicationFee))
		fmt.Fprintf(w, "Rental total\t%s\t\n", money(b.Rental.Total))
	}
	if b.HasSale {
		fmt.Fprintf(w, "Purchase price\t%s\t\n", money(b.Sale.TotalPrice))
		fmt.Fprintf(w, "Down payment\t%s\t\n", money(b.Sale.DownPayment))
		fmt.Fprintf(w, "Processing fee\t%s\t\n", money(b.Sale.ProcessingFee))
		fmt.Fprintf(w, "%d monthly instalments of\t%s\t\n", b.Sale.InstalmentMonths, money(b.Sale.MonthlyInstalment))
	}
	fmt.Fprintf(w, "Due today\t%s\t\n", money(b.DueToday))
	_ = w.Flush()
}

func (c *CLI) favorites(ctx context.Context, args []string) error {
	if ok, err := c.allowed(ctx, "profile"); !ok {
		return err
	}
	if len(args) == 0 {
		favs, err := c.app.Backend.Favorites.List(ctx)
		if err != nil {
			return err
		}
		if len(favs) == 0 {
			c.out.Printf("No favorites yet\n")
		}
		for _, f := range favs {
			c.out.Printf("  %s (since %s)\n", f.ListingID, f.CreatedAt.Local().Format("2006-01-02"))
		}
		return nil
	}
	if len(args) != 2 {
		return usage("fav [add|rm <id>]")
	}
	switch args[0] {
	case "add":
		if _, err := c.app.Backend.Favorites.Insert(ctx, args[1]); err != nil {
			return err
		}
		c.out.Printf("Added to favorites\n")
	case "rm":
		if err := c.app.Backend.Favorites.Delete(ctx, args[1]); err != nil {
			return err
		}
		c.out.Printf("Removed from favorites\n")
	default:
		return usage("fav [add|rm <id>]")
	}
	return nil
}

func (c *CLI) profile(ctx context.Context, args []string) error {
	if ok, err := c.allowed(ctx, "profile"); !ok {
		return err
	}
	if len(args) == 0 {
		p := c.app.Profiles.Current()
		if p == nil {
			c.out.Printf("Profile not loaded yet\n")
			return nil
		}
		c.out.Printf("%s <%s>\n  role: %s\n  phone: %s\n  address: %s\n  bio: %s\n",
			p.FullName, p.Email, access.RoleLabel(p.Role), p.Phone, p.Address, p.Bio)
		return nil
	}
	if len(args) < 3 || args[0] != "set" {
		return usage("profile set <name|phone|address|bio> <value>")
	}

	value := strings.Join(args[2:], " ")
	var update backend.ProfileUpdate
	switch args[1] {
	case "name":
		update.FullName = &value
	case "phone":
		update.Phone = &value
	case "address":
		update.Address = &value
	case "bio":
		update.Bio = &value
	default:
		return usage("profile set <name|phone|address|bio> <value>")
	}
	if _, err := c.app.Backend.Profiles.UpdateOwn(ctx, update); err != nil {
		return err
	}
	c.app.RefreshIdentity(ctx)
	c.out.Printf("Profile updated\n")
	return nil
}

func (c *CLI) navigate(ctx context.Context, args []string) error {
	if len(args) != 1 {
		names := make([]string, len(authz.Routes))
		for i, r := range authz.Routes {
			names[i] = r.Name
		}
		return usage("go <" + strings.Join(names, "|") + ">")
	}
	r, d, err := c.app.Gate.Navigate(ctx, args[0])
	if err != nil {
		return err
	}
	switch d.Outcome {
	case access.Allow:
		c.out.Printf("→ %s\n", r.Path)
	case access.Redirect:
		c.out.Printf("→ sign in required, you will return to %s\n", d.ReturnTo)
	default:
		c.out.Printf("✖ access denied for role %q\n", d.Role)
	}
	return nil
}

// allowed checks route access and prints the outcome when refused
func (c *CLI) allowed(ctx context.Context, route string) (bool, error) {
	_, d, err := c.app.Gate.Navigate(ctx, route)
	if err != nil {
		return false, err
	}
	switch d.Outcome {
	case access.Allow:
		return true, nil
	case access.Redirect:
		return false, notice.Emit(c.out, notice.Notice{
			Level:   notice.LevelInfo,
			Code:    notice.CodeSignInRequired,
			Message: "Please sign in first",
		})
	default:
		return false, notice.Emit(c.out, notice.Notice{
			Level:   notice.LevelError,
			Code:    notice.CodeAccessDenied,
			Message: fmt.Sprintf("Access denied: your role is %s", d.Role),
		})
	}
}

func (c *CLI) admin(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return usage("admin users|role <user-id> <admin|user>|create|delete <id>|upload <file>")
	}
	route := "admin/listings"
	if args[0] == "users" || args[0] == "role" {
		route = "admin/users"
	}
	if ok, err := c.allowed(ctx, route); !ok {
		return err
	}

	switch args[0] {
	case "users":
		profiles, err := c.app.Backend.Profiles.List(ctx, 1, 50)
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
		for _, p := range profiles {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t\n", p.UserID, p.Email, p.FullName, access.RoleLabel(p.Role))
		}
		return w.Flush()
	case "role":
		if len(args) != 3 || !domain.Role(args[2]).IsValid() {
			return usage("admin role <user-id> <admin|user>")
		}
		p, err := c.app.Backend.Profiles.SetRole(ctx, args[1], domain.Role(args[2]))
		if err != nil {
			return err
		}
		c.out.Printf("%s is now %s\n", p.Email, access.RoleLabel(p.Role))
	case "delete":
		if len(args) != 2 {
			return usage("admin delete <id>")
		}
		if err := c.app.Backend.Listings.Delete(ctx, args[1]); err != nil {
			return err
		}
		c.out.Printf("Listing deleted\n")
	case "create":
		return c.createListing(ctx)
	case "upload":
		if len(args) != 2 {
			return usage("admin upload <file>")
		}
		url, err := c.upload(ctx, args[1])
		if err != nil {
			return err
		}
		c.out.Printf("Uploaded: %s\n", url)
	default:
		return usage("admin users|role|create|delete|upload")
	}
	return nil
}

func (c *CLI) upload(ctx context.Context, path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	contentType := mime.TypeByExtension(strings.ToLower(filepath.Ext(path)))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return c.app.Backend.Storage.UploadImage(ctx, filepath.Base(path), contentType, f)
}

func (c *CLI) createListing(ctx context.Context) error {
	var in backend.ListingInput
	var err error
	ask := func(label string) string {
		if err != nil {
			return ""
		}
		var v string
		v, err = c.prompt(label)
		return v
	}
	askFloat := func(label string) float64 {
		v := ask(label)
		if err != nil || v == "" {
			return 0
		}
		f, perr := strconv.ParseFloat(v, 64)
		if perr != nil {
			err = fmt.Errorf("%s must be a number", strings.TrimSuffix(label, ": "))
		}
		return f
	}

	in.Title = ask("Title: ")
	in.Description = ask("Description: ")
	in.Location = ask("Location: ")
	in.Category = domain.Category(strings.ToLower(ask("Category (sale|rent): ")))
	in.Price = askFloat("Price: ")
	in.Beds = int(askFloat("Beds: "))
	in.Baths = int(askFloat("Baths: "))
	in.Area = askFloat("Area: ")
	images := ask("Image files or URLs (comma separated): ")
	if err != nil {
		return err
	}

	for _, ref := range strings.Split(images, ",") {
		ref = strings.TrimSpace(ref)
		if ref == "" {
			continue
		}
		if !strings.HasPrefix(ref, "http://") && !strings.HasPrefix(ref, "https://") {
			url, uerr := c.upload(ctx, ref)
			if uerr != nil {
				return uerr
			}
			ref = url
		}
		in.Images = append(in.Images, ref)
	}

	l, err := c.app.Backend.Listings.Create(ctx, in)
	if err != nil {
		return err
	}
	c.out.Printf("Created listing %s\n", l.ID)
	return nil
}

func money(v float64) string {
	s := strconv.FormatFloat(v, 'f', 0, 64)
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")
	var b strings.Builder
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	if neg {
		return "-$" + b.String()
	}
	return "$" + b.String()
}
