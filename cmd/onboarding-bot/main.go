package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"giftgroup-onboarding/internal/config"
	"giftgroup-onboarding/internal/handler"
	"giftgroup-onboarding/internal/logging"
	"giftgroup-onboarding/internal/models"
	"giftgroup-onboarding/internal/onboarding"
	"giftgroup-onboarding/internal/storage"
	"giftgroup-onboarding/internal/whatsapp"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var offline bool

	cmd := &cobra.Command{
		Use:   "onboarding-bot",
		Short: "Onboard people into a gift group over WhatsApp",
		Long: `Runs the gift group onboarding bot.

Each WhatsApp contact who writes to the bot is walked through joining the
group, creating a profile, listing gift wishes per occasion and optionally
linking an Amazon account. An operator console runs alongside it.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), offline)
		},
	}
	cmd.Flags().BoolVar(&offline, "offline", false, "only run the local console, without connecting to WhatsApp")
	return cmd
}

func run(ctx context.Context, offline bool) error {
	fmt.Println("🎁 Gift Group Onboarding Bot")
	fmt.Println("============================")

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Printf("Error loading configuration: %v\n", err)
		return err
	}
	log := logging.New(os.Stderr, cfg.Log)

	memberStorage, err := storage.NewStorage(ctx)
	if err != nil {
		fmt.Printf("Error initializing storage: %v\n", err)
		return err
	}
	defer memberStorage.Close()

	router := &messageRouter{console: os.Stdout}

	var whatsappService *whatsapp.Service
	if !offline {
		whatsappService, err = whatsapp.NewService(ctx, &whatsapp.Config{
			DataDir: cfg.WhatsApp.DataDir,
			QROut:   os.Stdout,
		}, log)
		if err != nil {
			fmt.Printf("Error initializing WhatsApp service: %v\n", err)
			return err
		}
		router.remote = whatsappService
	}

	onboardingHandler := handler.NewOnboardingHandler(router, memberStorage,
		onboarding.SimulatedLinker{Delay: cfg.Link.Delay},
		&handler.Config{
			GroupName:   cfg.Group.Name,
			LinkTimeout: cfg.Link.Timeout,
		}, log)
	defer onboardingHandler.Wait()

	if whatsappService != nil {
		whatsappService.SetMessageHandler(onboardingHandler.HandleMessage)

		fmt.Println("Connecting to WhatsApp...")
		if err := whatsappService.Connect(ctx); err != nil {
			fmt.Printf("Error connecting to WhatsApp: %v\n", err)
			return err
		}
		defer whatsappService.Disconnect()

		fmt.Println("\n✅ Connected to WhatsApp!")
		fmt.Println("The bot is now onboarding anyone who writes to it.")
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		startCLI(ctx, onboardingHandler, memberStorage, log)
		cancel()
	}()

	<-ctx.Done()
	fmt.Println("\n\nShutting down...")
	fmt.Println("Goodbye! 👋")
	return nil
}

const localPrefix = "local-"

// messageRouter prints replies for console flows and sends the rest over WhatsApp
type messageRouter struct {
	console io.Writer
	remote  handler.Messenger
}

func (r *messageRouter) SendMessage(ctx context.Context, recipient, message string) error {
	if strings.HasPrefix(recipient, localPrefix) {
		_, err := fmt.Fprintf(r.console, "\n%s\n", message)
		return err
	}
	if r.remote == nil {
		return errors.New("no chat transport configured")
	}
	return r.remote.SendMessage(ctx, recipient, message)
}

func startCLI(ctx context.Context, onboardingHandler *handler.OnboardingHandler, memberStorage *storage.Storage, log zerolog.Logger) {
	scanner := bufio.NewScanner(os.Stdin)
	runs := 0

	for ctx.Err() == nil {
		fmt.Println("\nCommands:")
		fmt.Println("  1. Onboard someone here")
		fmt.Println("  2. View all members")
		fmt.Println("  3. View members by group")
		fmt.Println("  4. Exit")
		fmt.Print("\nEnter command (1-4): ")

		if !scanner.Scan() {
			return
		}

		switch strings.TrimSpace(scanner.Text()) {
		case "1":
			runs++
			runLocalOnboarding(ctx, scanner, onboardingHandler, fmt.Sprintf("%s%d", localPrefix, runs), log)
		case "2":
			viewAllMembers(ctx, memberStorage)
		case "3":
			viewMembersByGroup(ctx, scanner, memberStorage)
		case "4":
			fmt.Println("Exiting...")
			return
		default:
			fmt.Println("Invalid command. Please try again.")
		}
	}
}

// runLocalOnboarding drives one flow from the terminal until it completes or the operator types "quit"
func runLocalOnboarding(ctx context.Context, scanner *bufio.Scanner, onboardingHandler *handler.OnboardingHandler, sender string, log zerolog.Logger) {
	fmt.Println("\nType your answers; \"help\" shows the options, \"quit\" returns to the menu.")

	if err := onboardingHandler.Handle(ctx, sender, "hi"); err != nil {
		log.Error().Err(err).Msg("Error handling input")
		return
	}
	for ctx.Err() == nil {
		if step, _ := onboardingHandler.Step(sender); step == models.StepComplete {
			return
		}
		fmt.Print("> ")
		if !scanner.Scan() {
			return
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if strings.EqualFold(line, "quit") {
			return
		}
		if err := onboardingHandler.Handle(ctx, sender, line); err != nil {
			log.Error().Err(err).Msg("Error handling input")
		}
		if strings.EqualFold(line, "connect") {
			// the result is printed once the link attempt settles
			onboardingHandler.Wait()
		}
	}
}

func viewAllMembers(ctx context.Context, memberStorage *storage.Storage) {
	members, err := memberStorage.GetAllMembers(ctx)
	if err != nil {
		fmt.Printf("❌ Error loading members: %v\n", err)
		return
	}
	if len(members) == 0 {
		fmt.Println("\nNo members found.")
		return
	}

	fmt.Printf("\n📋 All Members (%d total):\n", len(members))
	printMembers(members, true)
}

func viewMembersByGroup(ctx context.Context, scanner *bufio.Scanner, memberStorage *storage.Storage) {
	fmt.Print("Enter group code: ")
	if !scanner.Scan() {
		return
	}

	code, err := onboarding.ValidateGroupCode(scanner.Text())
	if err != nil {
		fmt.Println("Invalid group code.")
		return
	}

	members, err := memberStorage.GetMembersByGroup(ctx, code)
	if err != nil {
		fmt.Printf("❌ Error loading members: %v\n", err)
		return
	}
	if len(members) == 0 {
		fmt.Printf("\nNo members in group '%s'.\n", code)
		return
	}

	fmt.Printf("\n📋 Members of group '%s' (%d total):\n", code, len(members))
	printMembers(members, false)
}

func printMembers(members []models.Member, withGroup bool) {
	fmt.Println(strings.Repeat("-", 60))
	for _, m := range members {
		fmt.Printf("Name: %s\n", m.Record.Name)
		fmt.Printf("Phone: %s\n", m.Phone)
		if withGroup {
			fmt.Printf("Group: %s\n", m.Record.GroupCode)
		}
		fmt.Printf("Gifts: %d\n", len(m.Record.Preferences))
		for _, p := range m.Record.Preferences {
			fmt.Printf("  - %s\n", p)
		}
		fmt.Printf("Amazon: %t\n", m.Record.AmazonConnected)
		fmt.Printf("Joined: %s\n", m.JoinedAt.Format("2006-01-02 15:04:05"))
		fmt.Println(strings.Repeat("-", 60))
	}
}
