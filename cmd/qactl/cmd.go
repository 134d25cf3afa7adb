package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strconv"
	"strings"
	"syscall"

	"smartqa_backend/pkg/client"

	"golang.org/x/term"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp          = errors.New("help provided")
	errNotLoggedIn   = errors.New("not logged in, run `qactl login` first")
	errEmptyPassword = errors.New("password must not be empty")
)

type commandLine struct {
	api     *client.Client
	session *client.Session
	prefs   *client.Preferences
	out     io.Writer
}

func newCommandLine(api *client.Client, store client.Storage, out io.Writer) *commandLine {
	return &commandLine{
		api:     api,
		session: client.NewSession(api, store),
		prefs:   client.NewPreferences(store, nil),
		out:     out,
	}
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  register -username NAME -email EMAIL [-role student|admin] - create an account")
	fmt.Fprintln(cli.out, "  login -email EMAIL - sign in, the password is prompted")
	fmt.Fprintln(cli.out, "  logout - sign out and forget the stored token")
	fmt.Fprintln(cli.out, "  whoami - show the signed in user")
	fmt.Fprintln(cli.out, "  theme [light|dark|toggle] - show or change the theme")
	fmt.Fprintln(cli.out, "  tests - list active tests")
	fmt.Fprintln(cli.out, "  ask -q QUESTION [-docs 1,2] - ask the assistant")
	fmt.Fprintln(cli.out, "  history [-limit N] - show recent questions and answers")
}

func (cli *commandLine) newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(cli.out)
	return fs
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}
	ctx := context.Background()

	registerCmd := cli.newFlagSet("register")
	registerUname := registerCmd.String("username", "", "Display name, at least 3 characters.")
	registerEmail := registerCmd.String("email", "", "Email address used to sign in.")
	registerRole := registerCmd.String("role", "student", "Account role: student or admin.")

	loginCmd := cli.newFlagSet("login")
	loginEmail := loginCmd.String("email", "", "Email address. The password will be prompted next.")

	askCmd := cli.newFlagSet("ask")
	askQuestion := askCmd.String("q", "", "The question to ask.")
	askDocs := askCmd.String("docs", "", "Comma separated document ids used as context.")

	historyCmd := cli.newFlagSet("history")
	historyLimit := historyCmd.Int("limit", 10, "Number of entries to show (max 200).")

	switch args[1] {
	case "register":
		if err := registerCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *registerUname == "" || *registerEmail == "" {
			registerCmd.Usage()
			return errHelp
		}
		pwd, err := cli.readPassword()
		if err != nil {
			return err
		}
		user, err := cli.session.Register(ctx, client.RegisterInput{
			Username: *registerUname,
			Email:    *registerEmail,
			Password: pwd,
			Role:     *registerRole,
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(cli.out, "registered %s (%s)\n", user.Username, user.Role)
		return nil

	case "login":
		if err := loginCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *loginEmail == "" {
			loginCmd.Usage()
			return errHelp
		}
		pwd, err := cli.readPassword()
		if err != nil {
			return err
		}
		user, err := cli.session.Login(ctx, *loginEmail, pwd)
		if err != nil {
			return err
		}
		fmt.Fprintf(cli.out, "logged in as %s (%s)\n", user.Username, user.Role)
		return nil

	case "logout":
		cli.session.Init(ctx)
		cli.session.Logout(ctx)
		fmt.Fprintln(cli.out, "logged out")
		return nil

	case "whoami":
		user, err := cli.currentUser(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(cli.out, "%s <%s> %s\n", user.Username, user.Email, user.Role)
		return nil

	case "theme":
		return cli.theme(args[2:])

	case "tests":
		if _, err := cli.currentUser(ctx); err != nil {
			return err
		}
		tests, err := cli.api.ListTests(ctx)
		if err != nil {
			return err
		}
		if len(tests) == 0 {
			fmt.Fprintln(cli.out, "no active tests")
			return nil
		}
		for _, t := range tests {
			fmt.Fprintf(cli.out, "%d\t%s\t%s\t%d questions\t%d min\n", t.ID, t.TestName, t.Topic, t.QuestionCount, t.TimeLimitMinutes)
		}
		return nil

	case "ask":
		if err := askCmd.Parse(args[2:]); err != nil {
			return err
		}
		if strings.TrimSpace(*askQuestion) == "" {
			askCmd.Usage()
			return errHelp
		}
		ids, err := parseIDs(*askDocs)
		if err != nil {
			return err
		}
		if _, err := cli.currentUser(ctx); err != nil {
			return err
		}
		resp, err := cli.api.Ask(ctx, client.AskRequest{Question: *askQuestion, DocumentIDs: ids})
		if err != nil {
			return err
		}
		fmt.Fprintln(cli.out, resp.Answer)
		fmt.Fprintf(cli.out, "\n[source: %s, confidence: %.1f]\n", resp.Source, resp.Confidence)
		return nil

	case "history":
		if err := historyCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *historyLimit <= 0 || *historyLimit > 200 {
			historyCmd.Usage()
			return errHelp
		}
		if _, err := cli.currentUser(ctx); err != nil {
			return err
		}
		entries, err := cli.api.AskHistory(ctx, *historyLimit)
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			fmt.Fprintln(cli.out, "no questions asked yet")
			return nil
		}
		for _, h := range entries {
			fmt.Fprintf(cli.out, "[%s] %s (%s)\n%s\n\n", h.CreatedAt.Local().Format("2006-01-02 15:04"), h.Question, h.Source, h.Answer)
		}
		return nil

	default:
		cli.printUsage()
		return errHelp
	}
}

func (cli *commandLine) theme(args []string) error {
	if len(args) == 0 {
		fmt.Fprintln(cli.out, cli.prefs.Theme())
		return nil
	}
	var err error
	switch args[0] {
	case "toggle":
		_, err = cli.prefs.ToggleTheme()
	default:
		err = cli.prefs.SetTheme(client.Theme(args[0]))
	}
	if err != nil {
		return err
	}
	fmt.Fprintln(cli.out, cli.prefs.Theme())
	return nil
}

func (cli *commandLine) currentUser(ctx context.Context) (*client.User, error) {
	cli.session.Init(ctx)
	if !cli.session.IsAuthenticated() {
		return nil, errNotLoggedIn
	}
	return cli.session.User(), nil
}

func (cli *commandLine) readPassword() (string, error) {
	fmt.Fprint(cli.out, "Enter password:")
	pwd, err := readPasswordFunc(int(syscall.Stdin))
	fmt.Fprintln(cli.out)
	if err != nil {
		return "", err
	}
	if len(pwd) == 0 {
		return "", errEmptyPassword
	}
	return string(pwd), nil
}

func parseIDs(s string) ([]uint, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	var ids []uint
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseUint(part, 10, 64)
		if err != nil || id == 0 {
			return nil, fmt.Errorf("invalid document id %q", part)
		}
		ids = append(ids, uint(id))
	}
	return ids, nil
}
