package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/matheus3301/mingle/internal/account"
	"github.com/matheus3301/mingle/internal/app"
	"github.com/matheus3301/mingle/internal/backend"
	"github.com/matheus3301/mingle/internal/chat"
	"github.com/matheus3301/mingle/internal/display"
	"github.com/matheus3301/mingle/internal/screen"
)

func identifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "identify <mobile>",
		Short: "Check whether a mobile number is registered",
		Args:  exactArgs(1, "identify <mobile>"),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCore(func(ctx context.Context, core *app.Core) error {
				res, err := core.Account.Identify(ctx, args[0])
				if err != nil {
					return err
				}
				if jsonFlag {
					return outputJSON(res)
				}
				if res.Registered {
					fmt.Printf("registered as %s\n", res.UserName)
				} else {
					fmt.Println("not registered")
				}
				return nil
			})
		},
	}
}

func signUpCmd() *cobra.Command {
	var name, password, image string
	cmd := &cobra.Command{
		Use:   "signup <mobile>",
		Short: "Register a new account and sign in",
		Args:  exactArgs(1, "signup <mobile> --name <name> [--image <file>]"),
		RunE: func(cmd *cobra.Command, args []string) error {
			pw, err := readPassword(password)
			if err != nil {
				return err
			}
			upload, err := readUpload(image)
			if err != nil {
				return err
			}
			return withCore(func(ctx context.Context, core *app.Core) error {
				_, err := core.Account.SignUp(ctx, backend.SignUpForm{
					Name:     name,
					Password: pw,
					Mobile:   strings.TrimSpace(args[0]),
					Image:    upload,
				})
				if err != nil {
					return formError(err)
				}
				u, err := core.Account.SignIn(ctx, args[0], pw)
				if err != nil {
					return err
				}
				fmt.Printf("signed up as %s (id %s)\n", u.Name, u.ID)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "display name")
	cmd.Flags().StringVar(&password, "password", "", "password (prompted when omitted)")
	cmd.Flags().StringVar(&image, "image", "", "profile image file")
	return cmd
}

func signInCmd() *cobra.Command {
	var password string
	cmd := &cobra.Command{
		Use:   "signin <mobile>",
		Short: "Sign in and store the session in the profile",
		Args:  exactArgs(1, "signin <mobile>"),
		RunE: func(cmd *cobra.Command, args []string) error {
			pw, err := readPassword(password)
			if err != nil {
				return err
			}
			return withCore(func(ctx context.Context, core *app.Core) error {
				u, err := core.Account.SignIn(ctx, args[0], pw)
				if err != nil {
					return err
				}
				if jsonFlag {
					return outputJSON(u)
				}
				fmt.Printf("signed in as %s (id %s)\n", u.Name, u.ID)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&password, "password", "", "password (prompted when omitted)")
	return cmd
}

func logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Clear the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCore(func(ctx context.Context, core *app.Core) error {
				if err := core.Account.Logout(ctx); err != nil {
					return err
				}
				fmt.Println("signed out")
				return nil
			})
		},
	}
}

func whoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return signedIn(func(ctx context.Context, core *app.Core) error {
				u, _ := core.Account.Current()
				if jsonFlag {
					return outputJSON(u)
				}
				printUser(core, u)
				return nil
			})
		},
	}
}

func printUser(core *app.Core, u chat.User) {
	fmt.Printf("Profile: %s\n", core.Params.Profile)
	fmt.Printf("Name:    %s\n", u.Name)
	fmt.Printf("Mobile:  %s\n", u.Mobile)
	fmt.Printf("Id:      %s\n", u.ID)
	fmt.Printf("Joined:  %s\n", u.RegisteredDate)
	fmt.Printf("Image:   %s\n", display.AvatarURL(core.Client.AssetURL, display.UserAvatarPath(u)))
}

func chatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "chats",
		Short: "List direct conversations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return signedIn(func(ctx context.Context, core *app.Core) error {
				u, _ := core.Account.Current()
				snap, err := core.Screens.Fetcher.FetchChatList(ctx, u.ID)
				if err != nil && !errors.Is(err, backend.ErrNoUpdate) {
					return err
				}
				if jsonFlag {
					return outputJSON(snap.Conversations)
				}
				printConversations(snap.Conversations)
				return nil
			})
		},
	}
}

func groupsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "groups",
		Short: "List groups",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return signedIn(func(ctx context.Context, core *app.Core) error {
				u, _ := core.Account.Current()
				rows, err := core.Screens.Fetcher.FetchGroupList(ctx, u.ID)
				if err != nil {
					return err
				}
				if jsonFlag {
					return outputJSON(rows)
				}
				printConversations(rows)
				return nil
			})
		},
	}
}

func printConversations(rows []chat.Conversation) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\t\tLAST MESSAGE\tTIME\tSTATUS")
	for _, c := range rows {
		deco := display.RowFor(c)
		marker := deco.Tick.Glyph()
		if deco.ShowBadge {
			marker = "(" + deco.BadgeText() + ")"
		}
		presence := ""
		if c.Kind == chat.Direct {
			presence = display.Presence(c.Online)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n", c.ID, c.DisplayName, marker, c.LastMessagePreview, c.LastMessageTime, presence)
	}
	_ = w.Flush()
}

func contactsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "contacts [query]",
		Short: "List users, optionally filtered by name or mobile",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return signedIn(func(ctx context.Context, core *app.Core) error {
				c := screen.NewContacts(core.Screens)
				if err := c.Mount(ctx); err != nil {
					return err
				}
				var q string
				if len(args) == 1 {
					q = args[0]
				}
				list := c.Filter(q)
				if jsonFlag {
					return outputJSON(list)
				}
				w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "ID\tNAME\tMOBILE")
				for _, ct := range list {
					fmt.Fprintf(w, "%s\t%s\t%s\n", ct.ID, ct.Name, ct.Mobile)
				}
				return w.Flush()
			})
		},
	}
}

func conversationKey(id string, group bool) chat.Key {
	if group {
		return chat.GroupKey(chat.ID(id))
	}
	return chat.DirectKey(chat.ID(id))
}

// mountLoaded mounts a conversation and waits for its first snapshot. A first
// attempt that fails is returned as the error.
func mountLoaded(ctx context.Context, core *app.Core, key chat.Key) (*screen.Conversation, <-chan struct{}, error) {
	changed := make(chan struct{}, 1)
	conv := screen.NewConversation(core.Screens, key)
	conv.SetOnChange(func() {
		select {
		case changed <- struct{}{}:
		default:
		}
	})
	if err := conv.Mount(ctx); err != nil {
		return nil, nil, err
	}
	for conv.Snapshot().Loading {
		select {
		case <-ctx.Done():
			conv.Unmount()
			return nil, nil, ctx.Err()
		case <-changed:
		}
	}
	if v := conv.Snapshot(); !v.Synced {
		conv.Unmount()
		if v.Err != nil {
			return nil, nil, fmt.Errorf("load conversation: %w", v.Err)
		}
		return nil, nil, screen.ErrNotSynced
	}
	return conv, changed, nil
}

func showCmd() *cobra.Command {
	var group bool
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Print a conversation",
		Args:  exactArgs(1, "show <peer-id> | show --group <group-id>"),
		RunE: func(cmd *cobra.Command, args []string) error {
			return signedIn(func(ctx context.Context, core *app.Core) error {
				conv, _, err := mountLoaded(ctx, core, conversationKey(args[0], group))
				if err != nil {
					return err
				}
				conv.Unmount()
				v := conv.Snapshot()
				if v.Err != nil {
					return v.Err
				}
				if jsonFlag {
					return outputJSON(v.Messages)
				}
				if group && len(v.Members) > 0 {
					fmt.Printf("members: %s\n\n", display.MemberPreview(v.Members))
				}
				for _, m := range v.Messages {
					printMessage(m)
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&group, "group", false, "the id is a group id")
	return cmd
}

func printMessage(m chat.Message) {
	who := m.SenderName
	if m.Self {
		who = "you"
	}
	if who == "" {
		who = string(m.ConversationID)
	}
	ts := m.Timestamp
	if m.Optimistic() {
		ts = string(m.SendState)
	}
	tick := display.MessageTick(m).Glyph()
	fmt.Printf("[%s] %s: %s %s\n", ts, who, m.Body, tick)
}

func sendCmd() *cobra.Command {
	var group bool
	cmd := &cobra.Command{
		Use:   "send <id> <text>...",
		Short: "Send a message",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			body := strings.Join(args[1:], " ")
			return signedIn(func(ctx context.Context, core *app.Core) error {
				conv, _, err := mountLoaded(ctx, core, conversationKey(args[0], group))
				if err != nil {
					return err
				}
				defer conv.Unmount()
				out, err := conv.Send(ctx, body)
				if err != nil {
					return err
				}
				if jsonFlag {
					return outputJSON(out)
				}
				fmt.Printf("sent (%s)\n", out.Message.ID)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&group, "group", false, "the id is a group id")
	return cmd
}

func watchCmd() *cobra.Command {
	var group bool
	cmd := &cobra.Command{
		Use:   "watch <id>",
		Short: "Follow a conversation until interrupted",
		Args:  exactArgs(1, "watch <peer-id> | watch --group <group-id>"),
		RunE: func(cmd *cobra.Command, args []string) error {
			return signedIn(func(ctx context.Context, core *app.Core) error {
				conv, changed, err := mountLoaded(ctx, core, conversationKey(args[0], group))
				if err != nil {
					return err
				}
				defer conv.Unmount()

				printed := make(map[string]bool)
				flush := func() {
					for _, m := range conv.Snapshot().Messages {
						if m.Optimistic() || printed[m.ID] {
							continue
						}
						printed[m.ID] = true
						printMessage(m)
					}
				}
				flush()
				for {
					select {
					case <-ctx.Done():
						return nil
					case <-changed:
						flush()
					}
				}
			})
		},
	}
	cmd.Flags().BoolVar(&group, "group", false, "the id is a group id")
	return cmd
}

func mkgroupCmd() *cobra.Command {
	var name, desc, image string
	var members []string
	cmd := &cobra.Command{
		Use:   "mkgroup --name <name> --member <id> [--member <id>]...",
		Short: "Create a group",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			upload, err := readUpload(image)
			if err != nil {
				return err
			}
			return signedIn(func(ctx context.Context, core *app.Core) error {
				c := screen.NewContacts(core.Screens)
				if err := c.Mount(ctx); err != nil {
					return err
				}
				byID := make(map[chat.ID]chat.Contact)
				for _, ct := range c.Filter("") {
					byID[ct.ID] = ct
				}

				d := &screen.GroupDraft{Name: name, Description: desc, Image: upload}
				for _, id := range members {
					ct, ok := byID[chat.ID(id)]
					if !ok {
						return fmt.Errorf("unknown user %s", id)
					}
					if err := d.Add(ct); err != nil {
						return fmt.Errorf("add %s: %w", ct.Name, err)
					}
				}
				if err := d.Submit(ctx, core.Screens); err != nil {
					return err
				}
				fmt.Printf("group %q created with %d members\n", strings.TrimSpace(name), len(d.Members()))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "group name")
	cmd.Flags().StringVar(&desc, "desc", "", "group description")
	cmd.Flags().StringVar(&image, "image", "", "group image file")
	cmd.Flags().StringArrayVar(&members, "member", nil, "user id to add (repeatable)")
	return cmd
}

func profileCmd() *cobra.Command {
	var name, image string
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Show or update the profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			upload, err := readUpload(image)
			if err != nil {
				return err
			}
			update := cmd.Flags().Changed("name") || upload != nil
			return signedIn(func(ctx context.Context, core *app.Core) error {
				u, _ := core.Account.Current()
				if update {
					if !cmd.Flags().Changed("name") {
						name = u.Name
					}
					if u, err = core.Account.UpdateProfile(ctx, strings.TrimSpace(name), upload); err != nil {
						return formError(err)
					}
				}
				if jsonFlag {
					return outputJSON(u)
				}
				printUser(core, u)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "new display name")
	cmd.Flags().StringVar(&image, "image", "", "new profile image file")
	return cmd
}

func outboxCmd() *cobra.Command {
	var status string
	var limit int
	cmd := &cobra.Command{
		Use:   "outbox",
		Short: "Show the local send log",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCore(func(ctx context.Context, core *app.Core) error {
				entries, err := core.DB.ListOutbox(ctx, status, limit)
				if err != nil {
					return err
				}
				if jsonFlag {
					return outputJSON(entries)
				}
				w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "CREATED\tCONVERSATION\tSTATUS\tATTEMPTS\tBODY\tERROR")
				for _, e := range entries {
					created := time.UnixMilli(e.CreatedAt).Format(time.DateTime)
					fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%s\n", created, e.Conversation, e.Status, e.Attempts, e.Body, e.ErrorMessage)
				}
				return w.Flush()
			})
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "only entries with this status (queued, sent, failed)")
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum entries")
	return cmd
}

// readPassword returns flagValue, or prompts on the terminal without echo.
func readPassword(flagValue string) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", errors.New("--password is required when stdin is not a terminal")
	}
	fmt.Fprint(os.Stderr, "Password: ")
	pw, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return string(pw), nil
}

func readUpload(path string) (*backend.Upload, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}
	return &backend.Upload{Filename: filepath.Base(path), Data: data}, nil
}

// formError flattens field errors into one line per field.
func formError(err error) error {
	var form account.FormErrors
	if errors.As(err, &form) {
		lines := make([]string, 0, len(form))
		for _, fe := range form {
			lines = append(lines, fe.Field+": "+fe.Message)
		}
		return errors.New(strings.Join(lines, "; "))
	}
	return err
}
