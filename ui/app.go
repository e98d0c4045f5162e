// Package ui provides the Fyne-based GUI for the GoTeller client.
package ui

import (
	"fmt"
	"log/slog"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"github.com/shopspring/decimal"

	"github.com/NicolasHaas/goteller/pkg/client"
	"github.com/NicolasHaas/goteller/pkg/version"
)

const (
	prefKeyServer  = "server_addr"
	prefKeyAccount = "account_id"

	defaultServer = "127.0.0.1:2525"
)

// App is the main GUI application. It drives one teller connection: a login
// form first, then a balance view with withdraw/deposit actions.
type App struct {
	fyneApp fyne.App
	window  fyne.Window

	client  *client.Client
	account string

	// Login form
	serverEntry  *widget.Entry
	accountEntry *widget.Entry
	pinEntry     *widget.Entry

	// Main view
	balanceLabel *widget.Label
	statusLabel  *widget.Label
}

// NewApp creates a new GoTeller GUI application.
func NewApp() *App {
	a := &App{
		fyneApp: app.NewWithID("io.goteller.client"),
	}
	a.window = a.fyneApp.NewWindow("GoTeller")
	a.window.Resize(fyne.NewSize(420, 320))
	a.window.SetMaster()
	return a
}

// Run starts the GUI application (blocks).
func (a *App) Run() {
	a.showLogin()
	a.window.SetCloseIntercept(func() {
		a.disconnect()
		a.fyneApp.Quit()
	})
	a.window.ShowAndRun()
}

// showLogin builds and displays the login form.
func (a *App) showLogin() {
	prefs := a.fyneApp.Preferences()

	a.serverEntry = widget.NewEntry()
	a.serverEntry.SetText(prefs.StringWithFallback(prefKeyServer, defaultServer))

	a.accountEntry = widget.NewEntry()
	a.accountEntry.SetPlaceHolder("account")
	a.accountEntry.SetText(prefs.String(prefKeyAccount))

	a.pinEntry = widget.NewPasswordEntry()
	a.pinEntry.SetPlaceHolder("PIN")
	a.pinEntry.OnSubmitted = func(string) { a.performLogin() }

	loginBtn := widget.NewButtonWithIcon("Log in", theme.LoginIcon(), a.performLogin)
	loginBtn.Importance = widget.HighImportance

	form := container.New(layout.NewFormLayout(),
		widget.NewLabel("Server"), a.serverEntry,
		widget.NewLabel("Account"), a.accountEntry,
		widget.NewLabel("PIN"), a.pinEntry,
	)

	versionLabel := widget.NewLabel(version.String())
	versionLabel.TextStyle = fyne.TextStyle{Italic: true}
	versionLabel.Importance = widget.LowImportance

	content := container.NewVBox(
		widget.NewLabelWithStyle("GoTeller", fyne.TextAlignCenter, fyne.TextStyle{Bold: true}),
		form,
		loginBtn,
		layout.NewSpacer(),
		container.NewHBox(layout.NewSpacer(), versionLabel),
	)
	a.window.SetContent(container.NewPadded(content))
}

// performLogin connects and authenticates, then swaps to the main view.
func (a *App) performLogin() {
	addr := a.serverEntry.Text
	account := a.accountEntry.Text
	pin := a.pinEntry.Text
	if addr == "" || account == "" || pin == "" {
		dialog.ShowInformation("Log in", "Server, account, and PIN are required.", a.window)
		return
	}

	go func() {
		c, err := client.Dial(addr)
		if err != nil {
			a.showError(err)
			return
		}
		if err := c.Login(account, pin); err != nil {
			_ = c.Close()
			a.showError(err)
			return
		}

		fyne.Do(func() {
			a.client = c
			a.account = account
			prefs := a.fyneApp.Preferences()
			prefs.SetString(prefKeyServer, addr)
			prefs.SetString(prefKeyAccount, account)
			a.showMain()
			a.refreshBalance()
		})
	}()
}

// showMain builds and displays the account view.
func (a *App) showMain() {
	a.balanceLabel = widget.NewLabelWithStyle("Balance: ...", fyne.TextAlignCenter, fyne.TextStyle{Bold: true})
	a.statusLabel = widget.NewLabel(fmt.Sprintf("Logged in as %s", a.account))
	a.statusLabel.TextStyle = fyne.TextStyle{Italic: true}

	refreshBtn := widget.NewButtonWithIcon("Refresh", theme.ViewRefreshIcon(), a.refreshBalance)
	withdrawBtn := widget.NewButtonWithIcon("Withdraw", theme.ContentRemoveIcon(), func() {
		a.showAmountDialog("Withdraw", a.client.Withdraw)
	})
	depositBtn := widget.NewButtonWithIcon("Deposit", theme.ContentAddIcon(), func() {
		a.showAmountDialog("Deposit", a.client.Deposit)
	})
	exitBtn := widget.NewButtonWithIcon("Exit", theme.LogoutIcon(), a.exit)

	content := container.NewVBox(
		a.balanceLabel,
		refreshBtn,
		withdrawBtn,
		depositBtn,
		layout.NewSpacer(),
		exitBtn,
		a.statusLabel,
	)
	a.window.SetContent(container.NewPadded(content))
}

// refreshBalance queries the balance and updates the label.
func (a *App) refreshBalance() {
	c := a.client
	if c == nil {
		return
	}
	go func() {
		bal, err := c.Balance()
		if err != nil {
			a.showError(err)
			return
		}
		fyne.Do(func() {
			a.balanceLabel.SetText("Balance: " + bal.String())
		})
	}()
}

// showAmountDialog collects a positive amount and runs op with it.
func (a *App) showAmountDialog(title string, op func(decimal.Decimal) error) {
	amountEntry := widget.NewEntry()
	amountEntry.SetPlaceHolder("amount")

	items := []*widget.FormItem{widget.NewFormItem("Amount", amountEntry)}
	dialog.ShowForm(title, "Confirm", "Cancel", items, func(confirmed bool) {
		if !confirmed {
			return
		}
		amount, err := decimal.NewFromString(amountEntry.Text)
		if err != nil || !amount.IsPositive() {
			dialog.ShowInformation(title, "Amount must be a positive number.", a.window)
			return
		}
		go func() {
			if err := op(amount); err != nil {
				a.showError(err)
				return
			}
			a.refreshBalance()
		}()
	}, a.window)
}

// exit performs the BYE handshake and quits.
func (a *App) exit() {
	a.disconnect()
	a.fyneApp.Quit()
}

func (a *App) disconnect() {
	if a.client == nil {
		return
	}
	if err := a.client.Quit(); err != nil {
		slog.Debug("quit handshake failed", "err", err)
	}
	a.client = nil
}

func (a *App) showError(err error) {
	slog.Debug("request failed", "err", err)
	fyne.Do(func() {
		dialog.ShowError(err, a.window)
	})
}
