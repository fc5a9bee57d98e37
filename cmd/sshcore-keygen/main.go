// Package main provides the CLI entry point for the sshcore key
// management tool.
package main

import (
	"crypto/elliptic"
	"fmt"
	"os"
	"strings"

	"github.com/postalsys/sshcore/internal/keywizard"
	"github.com/postalsys/sshcore/internal/sysinfo"
	"github.com/postalsys/sshcore/pkg/conf"
	"github.com/postalsys/sshcore/pkg/keyfile"
	"github.com/postalsys/sshcore/pkg/pubkey"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	// Version is set at build time via ldflags.
	Version = "dev"
)

func init() {
	if Version == "dev" {
		Version = sysinfo.Version
	} else {
		sysinfo.Version = Version
	}
}

func main() {
	rootCmd := &cobra.Command{
		Use:   "sshcore-keygen",
		Short: "sshcore key generation and management",
		Long: `sshcore-keygen creates, inspects and re-encrypts the key file
formats the sshcore transport library understands: PPK v2/v3, the
legacy SSH-1 RSA key file, and OpenSSH's openssh-key-v1 container.`,
		Version: Version,
	}

	rootCmd.AddGroup(&cobra.Group{ID: "keys", Title: "Key Management:"})
	rootCmd.AddGroup(&cobra.Group{ID: "config", Title: "Configuration:"})

	gen := generateCmd()
	gen.GroupID = "keys"
	rootCmd.AddCommand(gen)

	fp := fingerprintCmd()
	fp.GroupID = "keys"
	rootCmd.AddCommand(fp)

	reenc := reencryptCmd()
	reenc.GroupID = "keys"
	rootCmd.AddCommand(reenc)

	cfg := configCmd()
	cfg.GroupID = "config"
	rootCmd.AddCommand(cfg)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func generateCmd() *cobra.Command {
	var (
		keyType    string
		bits       int
		curveName  string
		comment    string
		format     string
		outPath    string
		passphrase string
		interactive bool
	)

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a new key pair",
		Long: `Generate a new key pair and save it in one of the supported
container formats.

Run with no flags for an interactive prompt sequence; pass --type to
skip straight to flag-driven generation.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if keyType == "" {
				interactive = true
			}

			if interactive {
				r, err := keywizard.New().Run()
				if err != nil {
					return err
				}
				keyType, bits, curveName = r.Type, r.Bits, r.Curve
				comment, format, outPath, passphrase = r.Comment, r.Format, r.OutPath, r.Passphrase
			}

			key, err := newKey(keyType, bits, curveName)
			if err != nil {
				return err
			}

			data, err := encodeKeyFile(key, comment, format, passphrase)
			if err != nil {
				return err
			}

			if err := os.WriteFile(outPath, data, 0600); err != nil {
				return fmt.Errorf("failed to write %s: %w", outPath, err)
			}

			fp := keyfile.Fingerprint(key.PublicBlob(), keyfile.FingerprintSHA256)
			if interactive {
				keywizard.PrintSummary(key.Algorithm(), comment, fp, outPath)
			} else {
				fmt.Printf("Generated %s key\n", key.Algorithm())
				fmt.Printf("  Fingerprint: %s\n", fp)
				fmt.Printf("  Saved to:    %s\n", outPath)
			}

			return nil
		},
	}

	cmd.Flags().StringVarP(&keyType, "type", "t", "", "Key type: rsa, dsa, ecdsa, ed25519, ed448")
	cmd.Flags().IntVarP(&bits, "bits", "b", 3072, "Modulus size in bits (rsa only)")
	cmd.Flags().StringVar(&curveName, "curve", "nistp256", "Curve name (ecdsa only): nistp256, nistp384, nistp521")
	cmd.Flags().StringVarP(&comment, "comment", "C", "", "Key comment")
	cmd.Flags().StringVarP(&format, "format", "f", "ppk3", "Output format: ppk3, ppk2, openssh")
	cmd.Flags().StringVarP(&outPath, "out", "o", "id_sshcore", "Output file path")
	cmd.Flags().StringVarP(&passphrase, "passphrase", "p", "", "Encrypt the private key with this passphrase (ppk formats only)")

	return cmd
}

func newKey(keyType string, bits int, curveName string) (pubkey.Key, error) {
	switch strings.ToLower(keyType) {
	case "rsa":
		k, err := pubkey.GenerateRSA(uint(bits), nil)
		if err != nil {
			return nil, fmt.Errorf("failed to generate rsa key: %w", err)
		}
		return k, nil
	case "dsa":
		k, err := pubkey.GenerateDSA(nil)
		if err != nil {
			return nil, fmt.Errorf("failed to generate dsa key: %w", err)
		}
		return k, nil
	case "ecdsa":
		curve, err := parseCurve(curveName)
		if err != nil {
			return nil, err
		}
		k, err := pubkey.GenerateECDSA(curve, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to generate ecdsa key: %w", err)
		}
		return k, nil
	case "ed25519":
		k, err := pubkey.GenerateEd25519(nil)
		if err != nil {
			return nil, fmt.Errorf("failed to generate ed25519 key: %w", err)
		}
		return k, nil
	case "ed448":
		k, err := pubkey.GenerateEd448(nil)
		if err != nil {
			return nil, fmt.Errorf("failed to generate ed448 key: %w", err)
		}
		return k, nil
	default:
		return nil, fmt.Errorf("unknown key type %q (want rsa, dsa, ecdsa, ed25519, ed448)", keyType)
	}
}

func parseCurve(name string) (elliptic.Curve, error) {
	switch strings.ToLower(name) {
	case "nistp256", "p256", "":
		return elliptic.P256(), nil
	case "nistp384", "p384":
		return elliptic.P384(), nil
	case "nistp521", "p521":
		return elliptic.P521(), nil
	default:
		return nil, fmt.Errorf("unknown curve %q (want nistp256, nistp384, nistp521)", name)
	}
}

// encodeKeyFile renders key into the requested on-disk container.
func encodeKeyFile(key pubkey.Key, comment, format, passphrase string) ([]byte, error) {
	switch strings.ToLower(format) {
	case "ppk3", "":
		p := &keyfile.PPK{Algorithm: key.Algorithm(), Comment: comment, Public: key.PublicBlob(), Private: key.PrivateBlob()}
		return keyfile.SavePPK3(p, passphrase, keyfile.DefaultSaveParameters())
	case "ppk2":
		p := &keyfile.PPK{Algorithm: key.Algorithm(), Comment: comment, Public: key.PublicBlob(), Private: key.PrivateBlob()}
		return keyfile.SavePPK2(p, passphrase)
	case "openssh":
		if passphrase != "" {
			return nil, fmt.Errorf("encrypted openssh-key-v1 containers are not supported; use ppk3 for a passphrase-protected key")
		}
		ok := &keyfile.OpenSSHKey{Algorithm: key.Algorithm(), Public: key.PublicBlob(), Private: key.OpenSSHBlob(), Comment: comment}
		return keyfile.SaveOpenSSHNewFormat(ok)
	default:
		return nil, fmt.Errorf("unknown format %q (want ppk3, ppk2, openssh)", format)
	}
}

func fingerprintCmd() *cobra.Command {
	var alg string

	cmd := &cobra.Command{
		Use:   "fingerprint <keyfile>",
		Short: "Print a key file's fingerprint",
		Long: `Load a PPK (v2 or v3), openssh-key-v1, or legacy SSH-1 RSA key
file and print its algorithm, comment and fingerprint.

Traditional PEM-wrapped keys (PKCS#1/PKCS#8/EC) carry no SSH wire-format
public blob or comment of their own, so they are out of scope here;
load them with the keyfile package's LoadPEMPrivateKey directly.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", args[0], err)
			}

			algorithm, comment, publicBlob, err := loadPublicInfo(data, "")
			if err == errNeedPassphrase {
				pass, perr := readPassphrase("Passphrase: ", false)
				if perr != nil {
					return perr
				}
				algorithm, comment, publicBlob, err = loadPublicInfo(data, pass)
			}
			if err != nil {
				return err
			}

			var fa keyfile.FingerprintAlgorithm
			switch strings.ToLower(alg) {
			case "md5":
				fa = keyfile.FingerprintMD5
			case "sha256", "":
				fa = keyfile.FingerprintSHA256
			default:
				return fmt.Errorf("unknown fingerprint algorithm %q (want md5, sha256)", alg)
			}

			fmt.Printf("Algorithm:   %s\n", algorithm)
			if comment != "" {
				fmt.Printf("Comment:     %s\n", comment)
			}
			fmt.Printf("Fingerprint: %s\n", keyfile.Fingerprint(publicBlob, fa))

			return nil
		},
	}

	cmd.Flags().StringVarP(&alg, "alg", "a", "sha256", "Fingerprint algorithm: md5, sha256")

	return cmd
}

// errNeedPassphrase signals that the container is encrypted and the
// caller should retry loadPublicInfo with a real passphrase.
var errNeedPassphrase = fmt.Errorf("passphrase required")

// loadPublicInfo auto-detects the container format of data and returns
// the algorithm name, comment, and SSH wire-format public blob.
func loadPublicInfo(data []byte, passphrase string) (algorithm, comment string, publicBlob []byte, err error) {
	switch {
	case strings.Contains(string(data[:minHeader(data)]), "PuTTY-User-Key-File-3:"):
		p, err := keyfile.LoadPPK3(data, passphrase)
		if err == keyfile.ErrWrongPassphrase && passphrase == "" {
			return "", "", nil, errNeedPassphrase
		}
		if err != nil {
			return "", "", nil, err
		}
		return p.Algorithm, p.Comment, p.Public, nil
	case strings.Contains(string(data[:minHeader(data)]), "PuTTY-User-Key-File-2:"):
		p, err := keyfile.LoadPPK2(data, passphrase)
		if err == keyfile.ErrWrongPassphrase && passphrase == "" {
			return "", "", nil, errNeedPassphrase
		}
		if err != nil {
			return "", "", nil, err
		}
		return p.Algorithm, p.Comment, p.Public, nil
	case keyfile.LooksLikeSSHCom(data):
		return "", "", nil, fmt.Errorf("ssh.com keys are recognised but not decoded")
	case keyfile.LooksLikePEM(data):
		ok, err := keyfile.LoadOpenSSHNewFormat(data)
		if err != nil {
			return "", "", nil, fmt.Errorf("failed to load openssh key: %w", err)
		}
		return ok.Algorithm, ok.Comment, ok.Public, nil
	case strings.HasPrefix(string(data), "SSH PRIVATE KEY FILE FORMAT"):
		k, err := keyfile.LoadSSH1RSA(data)
		if err != nil {
			return "", "", nil, fmt.Errorf("failed to load ssh-1 key: %w", err)
		}
		pub := &pubkey.RSAKey{N: k.N, E: k.E}
		return "ssh-rsa", k.Comment, pub.PublicBlob(), nil
	default:
		return "", "", nil, fmt.Errorf("unrecognised key file format")
	}
}

func minHeader(data []byte) int {
	if len(data) < 64 {
		return len(data)
	}
	return 64
}

func reencryptCmd() *cobra.Command {
	var (
		toVersion int
		outPath   string
	)

	cmd := &cobra.Command{
		Use:   "reencrypt <ppk-file>",
		Short: "Change a PPK file's passphrase or migrate between v2 and v3",
		Long: `Load a PPK v2 or v3 file, prompt for its current and a new
passphrase, and save it back out under the requested format version.

Use this both to rotate a passphrase and to migrate a legacy v2 file
(weak MAC, no KDF tuning) to the Argon2-backed v3 format.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", args[0], err)
			}

			curPass, err := readPassphrase("Current passphrase (leave empty if none): ", false)
			if err != nil {
				return err
			}

			var p *keyfile.PPK
			switch {
			case strings.Contains(string(data[:minHeader(data)]), "PuTTY-User-Key-File-3:"):
				p, err = keyfile.LoadPPK3(data, curPass)
			case strings.Contains(string(data[:minHeader(data)]), "PuTTY-User-Key-File-2:"):
				p, err = keyfile.LoadPPK2(data, curPass)
			default:
				return fmt.Errorf("%s is not a recognised PPK file", args[0])
			}
			if err != nil {
				return fmt.Errorf("failed to load %s: %w", args[0], err)
			}

			newPass, err := readPassphrase("New passphrase (leave empty for none): ", true)
			if err != nil {
				return err
			}

			var out []byte
			switch toVersion {
			case 3:
				out, err = keyfile.SavePPK3(p, newPass, keyfile.DefaultSaveParameters())
			case 2:
				out, err = keyfile.SavePPK2(p, newPass)
			default:
				return fmt.Errorf("--to must be 2 or 3")
			}
			if err != nil {
				return fmt.Errorf("failed to save: %w", err)
			}

			if outPath == "" {
				outPath = args[0]
			}
			if err := os.WriteFile(outPath, out, 0600); err != nil {
				return fmt.Errorf("failed to write %s: %w", outPath, err)
			}

			fmt.Printf("Wrote PPK v%d to %s\n", toVersion, outPath)
			return nil
		},
	}

	cmd.Flags().IntVar(&toVersion, "to", 3, "Target format version: 2 or 3")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "Output path (defaults to overwriting the input file)")

	return cmd
}

func readPassphrase(prompt string, confirm bool) (string, error) {
	fmt.Print(prompt)
	pw, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		return "", fmt.Errorf("failed to read passphrase: %w", err)
	}
	if !confirm || len(pw) == 0 {
		return string(pw), nil
	}

	fmt.Print("Confirm: ")
	confirmPw, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		return "", fmt.Errorf("failed to read confirmation: %w", err)
	}
	if string(pw) != string(confirmPw) {
		return "", fmt.Errorf("passphrases do not match")
	}
	return string(pw), nil
}

func configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect and edit a session configuration file",
		Long:  "Read and write the YAML session configuration consumed by the transport layer.",
	}

	cmd.AddCommand(configInitCmd())
	cmd.AddCommand(configGetCmd())
	cmd.AddCommand(configSetCmd())
	cmd.AddCommand(configListCmd())

	return cmd
}

func configInitCmd() *cobra.Command {
	var path string

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a new configuration file with defaults",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := os.Stat(path); err == nil {
				return fmt.Errorf("%s already exists", path)
			}
			data, err := conf.Save(conf.New())
			if err != nil {
				return err
			}
			if err := os.WriteFile(path, data, 0644); err != nil {
				return fmt.Errorf("failed to write %s: %w", path, err)
			}
			fmt.Printf("Wrote default configuration to %s\n", path)
			return nil
		},
	}
	cmd.Flags().StringVarP(&path, "file", "c", "sshcore.yaml", "Configuration file path")
	return cmd
}

func configGetCmd() *cobra.Command {
	var path string

	cmd := &cobra.Command{
		Use:   "get <option>",
		Short: "Print the value of a configuration option",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := loadConfFile(path)
			if err != nil {
				return err
			}
			k, ok := conf.KeyByName(args[0])
			if !ok {
				return fmt.Errorf("unknown option %q", args[0])
			}
			v, err := c.Get(k)
			if err != nil {
				return err
			}
			fmt.Println(v)
			return nil
		},
	}
	cmd.Flags().StringVarP(&path, "file", "c", "sshcore.yaml", "Configuration file path")
	return cmd
}

func configSetCmd() *cobra.Command {
	var path string

	cmd := &cobra.Command{
		Use:   "set <option> <value>",
		Short: "Set a configuration option and save the file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := loadConfFile(path)
			if err != nil {
				return err
			}
			k, ok := conf.KeyByName(args[0])
			if !ok {
				return fmt.Errorf("unknown option %q", args[0])
			}

			var v any
			switch args[1] {
			case "true":
				v = true
			case "false":
				v = false
			default:
				var n int
				if _, scanErr := fmt.Sscanf(args[1], "%d", &n); scanErr == nil && fmt.Sprint(n) == args[1] {
					v = n
				} else {
					v = args[1]
				}
			}

			if err := c.Set(k, v); err != nil {
				return err
			}

			data, err := conf.Save(c)
			if err != nil {
				return err
			}
			return os.WriteFile(path, data, 0644)
		},
	}
	cmd.Flags().StringVarP(&path, "file", "c", "sshcore.yaml", "Configuration file path")
	return cmd
}

func configListCmd() *cobra.Command {
	var path string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List every scalar configuration option name",
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, k := range []conf.Key{
				conf.HostName, conf.Port, conf.Protocol, conf.Username,
				conf.AuthMethodOrder, conf.IdentityFile, conf.UseAgent,
				conf.AgentForwarding, conf.X11Forwarding, conf.RekeyTimeMinutes,
				conf.RekeyDataLimit, conf.CipherPreference, conf.KexPreference,
				conf.HostKeyPreference, conf.SSHLogFile, conf.VerboseLogging,
				conf.PingIntervalSeconds, conf.PreferKnownHostKeys,
			} {
				fmt.Println(k.String())
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&path, "file", "c", "sshcore.yaml", "Configuration file path")
	return cmd
}

func loadConfFile(path string) (*conf.Conf, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	c, err := conf.Load(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return c, nil
}
