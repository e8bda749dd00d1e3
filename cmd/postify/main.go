package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"postify/internal/app"
	"postify/internal/config"
	"postify/internal/encryption"
	"postify/internal/postify"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

// loadConfig reads the config file named by the defaults.
func loadConfig() (*config.Config, error) {
	defaults, err := app.GetDefaults()
	if err != nil {
		return nil, fmt.Errorf("getting defaults: %w", err)
	}

	cfg, err := config.ReadFromFile(defaults["config_path"])
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return cfg, nil
}

// newApp reads the config and creates a PostifyApp. The caller must defer app.Close().
// operation identifies the CLI command being run (e.g. "Login", "CreatePost").
func newApp(operation string) (*app.PostifyApp, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	a, err := app.NewApp(cfg, operation)
	if err != nil {
		return nil, fmt.Errorf("initializing app: %w", err)
	}

	return a, nil
}

// readPassword prompts for a password without echo when stdin is a terminal,
// and reads a single line otherwise so scripts can pipe it in.
func readPassword(prompt string) (string, error) {
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		fmt.Fprint(os.Stderr, prompt)
		b, err := term.ReadPassword(fd)
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return "", fmt.Errorf("reading password: %w", err)
		}
		return string(b), nil
	}

	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("reading password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func printPost(e postify.FeedEntry, withComments bool) {
	p := e.Post
	heart := " "
	if e.LikedByMe {
		heart = "♥"
	}
	fmt.Printf("%s  %-16s  %s  %s %d  💬 %d\n",
		p.ID,
		"@"+p.Username,
		p.CreatedAt.Local().Format("2006-01-02 15:04"),
		heart, len(p.Likes),
		len(p.Comments),
	)
	if p.Text != "" {
		for _, line := range strings.Split(p.Text, "\n") {
			fmt.Printf("    %s\n", line)
		}
	}
	if p.Image != "" {
		fmt.Println("    [image]")
	}
	if !withComments {
		return
	}
	for _, c := range p.Comments {
		fmt.Printf("    > @%s (%s): %s\n", c.Username, c.CommentedAt.Local().Format("2006-01-02 15:04"), c.Text)
	}
}

var rootCmd = &cobra.Command{
	Use:          "postify",
	Short:        "Social feed client",
	SilenceUsage: true,
}

// config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		cfg := config.NewConfig(defaults["base_dir"])
		if apiURL, _ := cmd.Flags().GetString("api-url"); apiURL != "" {
			cfg.APIURL = apiURL
		}

		if err := config.Init(defaults["config_path"], cfg); err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}

		if err := encryption.NewAgeEncryptor(cfg.Encryption).EnsureKeys(); err != nil {
			return fmt.Errorf("failed to create session keys: %w", err)
		}

		fmt.Printf("Configuration initialized at %s\n", defaults["config_path"])
		fmt.Printf("Base Dir: %s\n", cfg.BaseDir)
		fmt.Printf("API URL:  %s\n", cfg.APIURL)
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "View configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		cfg, err := config.ReadFromFile(defaults["config_path"])
		if err != nil {
			return fmt.Errorf("failed to read config: %w", err)
		}

		fmt.Printf("Configuration from %s:\n\n", defaults["config_path"])
		fmt.Printf("API URL:    %s\n", cfg.APIURL)
		fmt.Printf("Timeout:    %s\n", cfg.RequestTimeout)
		fmt.Printf("Base Dir:   %s\n", cfg.BaseDir)
		fmt.Printf("Log Dir:    %s\n", cfg.LogDir)
		fmt.Printf("Log Level:  %s\n", cfg.LogLevel)
		fmt.Printf("Database:   %s\n", cfg.Database.Type)
		fmt.Printf("Encryption: %s\n", cfg.Encryption.Type)
		return nil
	},
}

// signup command
var signupCmd = &cobra.Command{
	Use:   "signup USERNAME EMAIL",
	Short: "Create an account",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		password, err := readPassword("Password: ")
		if err != nil {
			return err
		}

		a, err := newApp("Signup")
		if err != nil {
			return err
		}
		defer a.Close()

		msg, err := a.Signup(cmd.Context(), args[0], args[1], password)
		if err != nil {
			return err
		}

		fmt.Println(msg)
		fmt.Println("Run 'postify login' to sign in.")
		return nil
	},
}

// login command
var loginCmd = &cobra.Command{
	Use:   "login EMAIL",
	Short: "Log in",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		password, err := readPassword("Password: ")
		if err != nil {
			return err
		}

		a, err := newApp("Login")
		if err != nil {
			return err
		}
		defer a.Close()

		user, err := a.Login(cmd.Context(), args[0], password)
		if err != nil {
			return err
		}

		fmt.Printf("Logged in as @%s\n", user.Username)
		return nil
	},
}

// logout command
var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Log out",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("Logout")
		if err != nil {
			return err
		}
		defer a.Close()

		user, err := a.Logout()
		if err != nil {
			return err
		}

		if user == nil {
			fmt.Println("Not logged in.")
			return nil
		}
		fmt.Printf("Logged out @%s\n", user.Username)
		return nil
	},
}

// whoami command
var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the logged-in user",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("WhoAmI")
		if err != nil {
			return err
		}
		defer a.Close()

		user, err := a.WhoAmI()
		if err != nil {
			return err
		}

		if user == nil {
			fmt.Println("Not logged in.")
			return nil
		}
		fmt.Printf("@%s <%s>\n", user.Username, user.Email)
		return nil
	},
}

// feed command
var feedCmd = &cobra.Command{
	Use:   "feed",
	Short: "Show the feed",
	RunE: func(cmd *cobra.Command, args []string) error {
		tab, _ := cmd.Flags().GetString("tab")
		if mine, _ := cmd.Flags().GetBool("mine"); mine {
			tab = string(postify.TabMine)
		}
		withComments, _ := cmd.Flags().GetBool("comments")

		a, err := newApp("Feed")
		if err != nil {
			return err
		}
		defer a.Close()

		view, err := a.Feed(cmd.Context(), tab)
		if err != nil {
			return err
		}

		fmt.Printf("All posts (%d) | My posts (%d)\n\n", view.TotalCount, view.MineCount)
		if len(view.Entries) == 0 {
			if view.Tab == postify.TabMine {
				fmt.Println("You haven't posted anything yet.")
			} else {
				fmt.Println("No posts yet.")
			}
			return nil
		}

		for _, e := range view.Entries {
			printPost(e, withComments)
		}
		return nil
	},
}

// show command
var showCmd = &cobra.Command{
	Use:   "show POST_ID",
	Short: "Show a post with its comments",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("Show")
		if err != nil {
			return err
		}
		defer a.Close()

		entry, err := a.Show(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		printPost(*entry, true)
		if len(entry.Post.Likes) > 0 {
			names := make([]string, len(entry.Post.Likes))
			for i, l := range entry.Post.Likes {
				names[i] = "@" + l.Username
			}
			fmt.Printf("    liked by %s\n", strings.Join(names, ", "))
		}
		return nil
	},
}

// post command
var postCmd = &cobra.Command{
	Use:   "post",
	Short: "Publish a post",
	RunE: func(cmd *cobra.Command, args []string) error {
		text, _ := cmd.Flags().GetString("text")
		image, _ := cmd.Flags().GetString("image")

		a, err := newApp("CreatePost")
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.CreatePost(cmd.Context(), text, image); err != nil {
			return err
		}

		fmt.Println("Posted.")
		return nil
	},
}

// like command
var likeCmd = &cobra.Command{
	Use:   "like POST_ID",
	Short: "Like or unlike a post",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("ToggleLike")
		if err != nil {
			return err
		}
		defer a.Close()

		liked, err := a.ToggleLike(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		if liked {
			fmt.Printf("Liked %s\n", args[0])
		} else {
			fmt.Printf("Unliked %s\n", args[0])
		}
		return nil
	},
}

// comment command
var commentCmd = &cobra.Command{
	Use:   "comment POST_ID TEXT",
	Short: "Comment on a post",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("AddComment")
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.Comment(cmd.Context(), args[0], strings.Join(args[1:], " ")); err != nil {
			return err
		}

		fmt.Println("Comment added.")
		return nil
	},
}

// history command
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "View operation history",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		a, err := newApp("GetHistory")
		if err != nil {
			return err
		}
		defer a.Close()

		ops, err := a.GetHistory(limit)
		if err != nil {
			return err
		}

		if len(ops) == 0 {
			fmt.Println("No operations recorded.")
			return nil
		}

		for _, op := range ops {
			duration := ""
			if op.FinishedAt.Valid {
				d := op.FinishedAt.Time.Sub(op.StartedAt)
				duration = d.Truncate(time.Millisecond).String()
			}
			fmt.Printf("#%d  %-12s  %s  %-8s  %-10s  %s\n",
				op.ID,
				op.Operation,
				op.StartedAt.Format("2006-01-02 15:04:05"),
				op.Status,
				duration,
				op.Parameters,
			)
		}
		return nil
	},
}

// serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run a local development backend",
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, _ := cmd.Flags().GetString("addr")

		cfg, err := loadConfig()
		if err != nil {
			defaults, derr := app.GetDefaults()
			if derr != nil {
				return fmt.Errorf("getting defaults: %w", derr)
			}
			cfg = config.NewConfig(defaults["base_dir"])
		}

		return app.Serve(cmd.Context(), cfg, addr)
	},
}

func init() {
	// config subcommands
	configCmd.AddCommand(configInitCmd)
	configInitCmd.Flags().String("api-url", "", "Backend base URL (default "+config.DefaultAPIURL+")")
	configCmd.AddCommand(configListCmd)

	// account commands
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(signupCmd)
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(whoamiCmd)

	// feed commands
	rootCmd.AddCommand(feedCmd)
	feedCmd.Flags().StringP("tab", "t", "all", "Feed to show: all or mine")
	feedCmd.Flags().BoolP("mine", "m", false, "Show only my posts")
	feedCmd.Flags().BoolP("comments", "c", false, "Include comments")
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(postCmd)
	postCmd.Flags().StringP("text", "t", "", "Post text")
	postCmd.Flags().StringP("image", "i", "", "Path to an image to attach")
	rootCmd.AddCommand(likeCmd)
	rootCmd.AddCommand(commentCmd)

	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().IntP("limit", "n", 50, "Maximum number of operations to show")
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", "", "Listen address (default from config)")
}
