package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/gookit/color"
	"github.com/olekukonko/tablewriter"

	"forum-chat/client"
	"forum-chat/domain"
)

// terminalRenderer prints the controller's view to stdout. Incoming and
// outgoing lines get distinct colors; the presence snapshot renders as
// a table.
type terminalRenderer struct{}

func (terminalRenderer) RenderPresence(users []domain.OnlineUser) {
	color.Cyan.Println("\n--- online now ---")
	if len(users) == 0 {
		color.Gray.Println("nobody else is online")
		return
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"ID", "Name"})
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")
	for _, user := range users {
		table.Append([]string{strconv.FormatInt(int64(user.UserID), 10), user.DisplayName})
	}
	table.Render()
}

func (terminalRenderer) RenderTranscript(partner domain.UserID, entries []client.Entry) {
	color.Cyan.Printf("\n--- conversation with %d ---\n", partner)
	for _, entry := range entries {
		renderLine(entry)
	}
}

func (terminalRenderer) RenderEntry(entry client.Entry) {
	renderLine(entry)
}

func (terminalRenderer) RenderNotice(text string) {
	color.Yellow.Println("! " + text)
}

func (terminalRenderer) NotifyUnread(partner domain.UserID) {
	color.Magenta.Printf("* new message from %d (/open %d to read)\n", partner, partner)
}

func renderLine(entry client.Entry) {
	if entry.Outgoing {
		color.Green.Println(entry.Text)
		return
	}
	fmt.Println(entry.Text)
}
