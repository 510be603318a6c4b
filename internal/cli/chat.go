package cli

import (
	"strconv"

	"github.com/spf13/cobra"

	"thriftstore/internal/client/chat"
	"thriftstore/internal/common"
)

const timeLayout = "Jan 2 15:04"

func newChatsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "chats",
		Short: "List your conversations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			sess, err := a.requireSession(ctx)
			if err != nil {
				return err
			}

			summaries, err := a.chatClient(sess).ListConversations(ctx)
			if err != nil {
				return a.checked(ctx, err)
			}
			if len(summaries) == 0 {
				a.printf("No conversations yet\n")
				return nil
			}
			for _, s := range summaries {
				when := ""
				if s.LastMessageTime != nil {
					when = s.LastMessageTime.Local().Format(timeLayout)
				}
				a.printf("#%-5d %-20s %-12s %s\n", s.Conversation.ID, s.CounterpartName, when, s.LastMessage)
			}
			return nil
		},
	}
}

func newChatCmd(a *app) *cobra.Command {
	var message string
	var follow bool
	var seller uint
	cmd := &cobra.Command{
		Use:   "chat [conversationId]",
		Short: "Show a conversation and optionally send a message",
		Long: "Show a conversation's history. --message sends a message and waits for the " +
			"server to confirm it; --follow keeps printing new messages until interrupted. " +
			"--seller opens (or creates) the conversation with a seller instead of passing an id.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			sess, err := a.requireSession(ctx)
			if err != nil {
				return err
			}

			var convID uint
			switch {
			case len(args) == 1:
				id, err := strconv.ParseUint(args[0], 10, 64)
				if err != nil || id == 0 {
					return common.NewValidationError("conversationId", "conversation id must be a positive number")
				}
				convID = uint(id)
			case seller != 0:
				conv, err := a.api.StartConversation(ctx, seller)
				if err != nil {
					return a.checked(ctx, err)
				}
				convID = conv.ID
			default:
				return common.NewValidationError("conversationId", "pass a conversation id or --seller")
			}

			thread, err := a.chatClient(sess).OpenConversation(ctx, convID)
			if err != nil {
				return a.checked(ctx, err)
			}
			defer thread.Close()

			for _, m := range thread.Messages() {
				a.printMessage(sess.UserID, m)
			}

			if message != "" {
				sent, err := thread.Send(ctx, message)
				if err != nil {
					a.printf("Message %s: %v\n", sent.Status, err)
				} else {
					a.printMessage(sess.UserID, sent)
				}
			}

			if !follow {
				return nil
			}
			for {
				select {
				case <-ctx.Done():
					return nil
				case m, ok := <-thread.Updates():
					if !ok {
						a.printf("Connection closed\n")
						return nil
					}
					a.printMessage(sess.UserID, m)
				}
			}
		},
	}
	cmd.Flags().StringVarP(&message, "message", "m", "", "Send this message")
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Keep printing new messages")
	cmd.Flags().UintVar(&seller, "seller", 0, "Start or reopen the conversation with this seller")
	return cmd
}

func (a *app) printMessage(self uint, m chat.Message) {
	who := "them"
	if m.SenderID == self {
		who = "you"
	}
	status := ""
	if m.Status != chat.StatusSent {
		status = " [" + string(m.Status) + "]"
	}
	a.printf("[%s] %-4s: %s%s\n", m.CreatedAt.Local().Format(timeLayout), who, m.Content, status)
}
