// Package keywizard provides an interactive prompt flow for generating
// a new key pair, in place of a long flag list.
//
// Grounded on the teacher's internal/wizard (banner/summary printing,
// Wizard struct with a New()/Run() shape), generalized from a
// multi-step network-agent setup flow down to the much smaller
// key-generation question set, and using github.com/charmbracelet/huh
// and github.com/charmbracelet/lipgloss (both already part of the
// teacher's dependency stack) for the prompts themselves rather than
// hand-rolled fmt.Scanln loops.
package keywizard

import (
	"fmt"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
)

// Result is the set of answers collected from the wizard.
type Result struct {
	Type       string // rsa, dsa, ecdsa, ed25519, ed448
	Bits       int    // rsa only
	Curve      string // ecdsa only: nistp256, nistp384, nistp521
	Comment    string
	Format     string // ppk3, ppk2, openssh
	OutPath    string
	Passphrase string // empty means unencrypted
}

var (
	bannerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
)

// Wizard drives the interactive key-generation prompt sequence.
type Wizard struct{}

// New creates a new key-generation wizard.
func New() *Wizard {
	return &Wizard{}
}

// Run asks the question sequence and returns the collected answers.
func (w *Wizard) Run() (*Result, error) {
	w.printBanner()

	r := &Result{
		Type:    "ed25519",
		Bits:    3072,
		Curve:   "nistp256",
		Format:  "ppk3",
		OutPath: "id_sshcore",
	}

	typeGroup := huh.NewGroup(
		huh.NewSelect[string]().
			Title("Key type").
			Options(
				huh.NewOption("Ed25519 (recommended)", "ed25519"),
				huh.NewOption("Ed448", "ed448"),
				huh.NewOption("ECDSA", "ecdsa"),
				huh.NewOption("RSA", "rsa"),
				huh.NewOption("DSA (legacy, 1024-bit only)", "dsa"),
			).
			Value(&r.Type),
	)
	if err := huh.NewForm(typeGroup).Run(); err != nil {
		return nil, fmt.Errorf("keywizard: key type prompt: %w", err)
	}

	switch r.Type {
	case "rsa":
		bitsStr := "3072"
		g := huh.NewGroup(
			huh.NewSelect[string]().
				Title("RSA modulus size").
				Options(
					huh.NewOption("2048", "2048"),
					huh.NewOption("3072", "3072"),
					huh.NewOption("4096", "4096"),
				).
				Value(&bitsStr),
		)
		if err := huh.NewForm(g).Run(); err != nil {
			return nil, fmt.Errorf("keywizard: rsa size prompt: %w", err)
		}
		fmt.Sscanf(bitsStr, "%d", &r.Bits)
	case "ecdsa":
		g := huh.NewGroup(
			huh.NewSelect[string]().
				Title("ECDSA curve").
				Options(
					huh.NewOption("nistp256", "nistp256"),
					huh.NewOption("nistp384", "nistp384"),
					huh.NewOption("nistp521", "nistp521"),
				).
				Value(&r.Curve),
		)
		if err := huh.NewForm(g).Run(); err != nil {
			return nil, fmt.Errorf("keywizard: curve prompt: %w", err)
		}
	}

	detailsGroup := huh.NewGroup(
		huh.NewInput().
			Title("Comment").
			Placeholder("user@host").
			Value(&r.Comment),
		huh.NewSelect[string]().
			Title("Output format").
			Options(
				huh.NewOption("PPK v3 (Argon2)", "ppk3"),
				huh.NewOption("PPK v2 (legacy)", "ppk2"),
				huh.NewOption("OpenSSH (openssh-key-v1)", "openssh"),
			).
			Value(&r.Format),
		huh.NewInput().
			Title("Output file").
			Value(&r.OutPath),
		huh.NewInput().
			Title("Passphrase (leave empty for none)").
			EchoMode(huh.EchoModePassword).
			Value(&r.Passphrase),
	)
	if err := huh.NewForm(detailsGroup).Run(); err != nil {
		return nil, fmt.Errorf("keywizard: details prompt: %w", err)
	}

	return r, nil
}

func (w *Wizard) printBanner() {
	fmt.Println(bannerStyle.Render("sshcore-keygen interactive setup"))
	fmt.Println(labelStyle.Render("Answer the prompts below to generate a new key pair."))
	fmt.Println()
}

// PrintSummary renders the generated key's headline facts after a
// successful generate run.
func PrintSummary(algorithm, comment, fingerprint, outPath string) {
	fmt.Println()
	fmt.Println(bannerStyle.Render("Key generated"))
	fmt.Printf("  %s %s\n", labelStyle.Render("Algorithm:"), algorithm)
	if comment != "" {
		fmt.Printf("  %s %s\n", labelStyle.Render("Comment:"), comment)
	}
	fmt.Printf("  %s %s\n", labelStyle.Render("Fingerprint:"), fingerprint)
	fmt.Printf("  %s %s\n", labelStyle.Render("Saved to:"), outPath)
}
