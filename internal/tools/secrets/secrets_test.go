package secrets

import (
	"bytes"
	"flag"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aussiebroadwan/roomkey/pkg/cryptox"
)

func parseOutput(t *testing.T, out string) map[string]string {
	t.Helper()
	values := map[string]string{}
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		if strings.HasPrefix(line, "#") {
			values["#"] = strings.TrimPrefix(line, "# fingerprint ")
			continue
		}
		k, v, ok := strings.Cut(line, "=")
		require.True(t, ok, "line %q", line)
		values[k] = strings.Trim(v, "'")
	}
	return values
}

func TestParseConfig(t *testing.T) {
	fs := flag.NewFlagSet("secrets", flag.ContinueOnError)
	cfg, err := ParseConfig(fs, nil)
	require.NoError(t, err)
	require.Equal(t, cryptox.TokenSize512, cfg.SecretBytes)
	require.Equal(t, cryptox.TokenSize256, cfg.AdminKeyBytes)
	require.Empty(t, cfg.AdminKey)

	fs = flag.NewFlagSet("secrets", flag.ContinueOnError)
	cfg, err = ParseConfig(fs, []string{"-secret-bytes", "48", "-admin-key", "existing"})
	require.NoError(t, err)
	require.Equal(t, 48, cfg.SecretBytes)
	require.Equal(t, "existing", cfg.AdminKey)

	fs = flag.NewFlagSet("secrets", flag.ContinueOnError)
	fs.SetOutput(&bytes.Buffer{})
	_, err = ParseConfig(fs, []string{"-bogus"})
	require.Error(t, err)
}

func TestRun_Generates(t *testing.T) {
	buf := &bytes.Buffer{}
	require.NoError(t, Run(Config{SecretBytes: 64, AdminKeyBytes: 32}, buf))

	values := parseOutput(t, buf.String())
	require.Len(t, values["JWT_SECRET"], 86)
	require.Len(t, values["ADMIN_API_KEY"], 43)
	require.Equal(t, cryptox.FingerprintToken(values["ADMIN_API_KEY"]), values["#"])
	require.NoError(t, cryptox.VerifySecret(values["ADMIN_API_KEY"], values["ADMIN_API_KEY_HASH"]))

	verifier, err := cryptox.NewAdminKeyVerifier("", values["ADMIN_API_KEY_HASH"])
	require.NoError(t, err)
	require.True(t, verifier.VerifyKey(values["ADMIN_API_KEY"]))
}

func TestRun_HashesGivenKey(t *testing.T) {
	buf := &bytes.Buffer{}
	require.NoError(t, Run(Config{SecretBytes: 32, AdminKey: "operator-key"}, buf))

	values := parseOutput(t, buf.String())
	require.Equal(t, "operator-key", values["ADMIN_API_KEY"])
	require.NoError(t, cryptox.VerifySecret("operator-key", values["ADMIN_API_KEY_HASH"]))
}

func TestRun_Invalid(t *testing.T) {
	require.Error(t, Run(Config{SecretBytes: 64, AdminKeyBytes: 32}, nil))
	require.Error(t, Run(Config{SecretBytes: 8, AdminKeyBytes: 32}, &bytes.Buffer{}))
	require.Error(t, Run(Config{SecretBytes: 64, AdminKeyBytes: 4}, &bytes.Buffer{}))
}
