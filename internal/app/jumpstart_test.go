package app

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/ini.v1"

	"github.com/felixgeelhaar/jumpstart/internal/adapters/logging"
	"github.com/felixgeelhaar/jumpstart/internal/domain/config"
	"github.com/felixgeelhaar/jumpstart/internal/domain/credential"
	"github.com/felixgeelhaar/jumpstart/internal/domain/reconcile"
	"github.com/felixgeelhaar/jumpstart/internal/ports"
	"github.com/felixgeelhaar/jumpstart/internal/testutil/mocks"
)

const secretValue = "wJalrXUtnFEMI-K7MDENG"

var tokenRef = credential.Reference{Backend: "op", Item: "vpn", Field: "token"}

// fakeBrew keeps an installed set so repeated runs observe earlier installs.
type fakeBrew struct {
	mu        sync.Mutex
	installed map[string]bool
	failures  map[string]string
	installs  []string
}

func newFakeBrew() *fakeBrew {
	return &fakeBrew{installed: map[string]bool{}, failures: map[string]string{}}
}

func (b *fakeBrew) Name() string { return "brew" }

func (b *fakeBrew) Installed(_ context.Context, id, _ string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.installed[id], nil
}

func (b *fakeBrew) Install(_ context.Context, id, _ string) (ports.CommandResult, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.installs = append(b.installs, id)
	if msg, ok := b.failures[id]; ok {
		return ports.CommandResult{ExitCode: 1, Stderr: msg}, nil
	}
	b.installed[id] = true
	return ports.CommandResult{}, nil
}

type harness struct {
	fs       *mocks.FileSystem
	runner   *mocks.CommandRunner
	brew     *fakeBrew
	creds    *mocks.CredentialProvider
	prompter *mocks.Prompter
	out      *bytes.Buffer
	logs     *bytes.Buffer
	app      *Jumpstart
}

func newHarness(t *testing.T, replies ...mocks.Reply) *harness {
	t.Helper()
	h := &harness{
		fs:       mocks.NewFileSystem(),
		runner:   mocks.NewCommandRunner(),
		brew:     newFakeBrew(),
		creds:    mocks.NewCredentialProvider(),
		prompter: mocks.NewPrompter(true, replies...),
		out:      &bytes.Buffer{},
		logs:     &bytes.Buffer{},
	}
	h.creds.AddSecret(tokenRef, secretValue)
	h.runner.AddResult("open", []string{"-a", "Slack"}, ports.CommandResult{})

	clock := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	logger := logging.NewConsoleLogger(
		logging.WithOutput(h.logs),
		logging.WithLevel(ports.LevelDebug),
		logging.WithJSONFormat(true),
	)
	h.app = New(h.out,
		WithFileSystem(h.fs),
		WithCommandRunner(h.runner),
		WithPackageManager(h.brew),
		WithCredentials(h.creds),
		WithPrompter(h.prompter),
		WithLogger(logger),
		WithClock(func() time.Time { return clock }),
		WithRunID(func() string { return "run-1" }),
	)
	return h
}

const fullDoc = `
steps:
  - kind: folder
    path: /home/me/Projects
  - kind: package
    identifier: git
  - kind: file-sync
    source: dotfiles/zshrc
    destination: /home/me/.zshrc
  - kind: automated-setup
    name: VPN
    marker: /home/me/.vpn/.done
    credentials:
      token: op://vpn/token
    action:
      type: write-file
      path: /home/me/.vpn/token
      template: '{{ secret "token" }}'
  - kind: interactive-setup
    name: Slack
    launch: Slack
    instructions: Sign in.
    marker: /home/me/.slack-done
`

func outcomes(results []reconcile.Result) []reconcile.Outcome {
	out := make([]reconcile.Outcome, len(results))
	for i, r := range results {
		out[i] = r.Outcome
	}
	return out
}

func TestApply_SecondRunIsAlreadySatisfied(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.fs.AddFile("/cfg/apps.yaml", fullDoc)
	h.fs.AddFile("/cfg/dotfiles/zshrc", "export EDITOR=vim\n")
	opts := NewRunOptions("/cfg/jumpstart.yaml").WithDocuments("/cfg/apps.yaml")

	first, err := h.app.Apply(context.Background(), opts)
	require.NoError(t, err)
	assert.Equal(t, []reconcile.Outcome{
		reconcile.OutcomeApplied, reconcile.OutcomeApplied, reconcile.OutcomeApplied,
		reconcile.OutcomeApplied, reconcile.OutcomeApplied,
	}, outcomes(first.Results))
	assert.Equal(t, "run-1", first.RunID)

	content, ok := h.fs.Content("/home/me/.zshrc")
	require.True(t, ok)
	assert.Equal(t, "export EDITOR=vim\n", content)
	token, _ := h.fs.Content("/home/me/.vpn/token")
	assert.Equal(t, secretValue, token)

	second, err := h.app.Apply(context.Background(), opts)
	require.NoError(t, err)
	for _, r := range second.Results {
		assert.Equal(t, reconcile.OutcomeAlreadySatisfied, r.Outcome, r.Name)
	}
	assert.Equal(t, []string{"git"}, h.brew.installs)
	assert.Equal(t, 5, second.Summary.AlreadySatisfied)
}

func TestApply_ContinuesAfterFailure(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.brew.failures["jq"] = "Error: No available formula with the name \"jq\"."
	h.fs.AddFile("/cfg/apps.yaml", `
formulae: [git, jq, ripgrep]
folders: [/home/me/Work]
`)

	report, err := h.app.Apply(context.Background(), NewRunOptions("").WithDocuments("/cfg/apps.yaml"))
	require.NoError(t, err)

	require.Len(t, report.Results, 4)
	for i, r := range report.Results {
		assert.Equal(t, i, r.Index)
	}
	assert.Equal(t, []string{"git", "jq", "ripgrep", "/home/me/Work"},
		[]string{report.Results[0].Name, report.Results[1].Name, report.Results[2].Name, report.Results[3].Name})
	assert.Equal(t, reconcile.OutcomeFailed, report.Results[1].Outcome)
	assert.Contains(t, report.Results[1].Reason, `No available formula with the name "jq".`)
	assert.Equal(t, reconcile.OutcomeApplied, report.Results[2].Outcome)
	assert.True(t, h.fs.IsDir("/home/me/Work"))
	assert.True(t, report.Summary.HasFailures())
}

func TestApply_MalformedDocumentRunsNothing(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.fs.AddFile("/cfg/good.yaml", "folders: [/home/me/Work]\nformulae: [git]\n")
	h.fs.AddFile("/cfg/bad.yaml", "steps:\n  - kind: teleport\n")

	report, err := h.app.Apply(context.Background(), NewRunOptions("").WithDocuments("/cfg/good.yaml", "/cfg/bad.yaml"))
	require.Error(t, err)
	assert.Nil(t, report)
	assert.ErrorIs(t, err, config.ErrMalformedConfig)
	assert.False(t, h.fs.IsDir("/home/me/Work"))
	assert.Empty(t, h.brew.installs)
	assert.Empty(t, h.creds.Calls())
}

func TestApply_MalformedStepInSingleDocumentRunsNothing(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.fs.AddFile("/cfg/apps.yaml", `
steps:
  - kind: folder
    path: /home/me/Work
  - kind: package
    identifer: jq
  - kind: automated-setup
    name: VPN
    marker: /home/me/.vpn/.done
    credentials:
      token: op://vpn/token
    action:
      type: write-file
      path: /home/me/.vpn/token
      template: '{{ secret "token" }}'
`)

	report, err := h.app.Apply(context.Background(), NewRunOptions("").WithDocuments("/cfg/apps.yaml"))
	require.Error(t, err)
	assert.Nil(t, report)
	assert.ErrorIs(t, err, config.ErrMalformedConfig)
	ue := config.GetUserError(err)
	require.NotNil(t, ue)
	assert.Contains(t, ue.Context, "steps[1]")

	assert.False(t, h.fs.IsDir("/home/me/Work"))
	assert.False(t, h.fs.Exists("/home/me/.vpn/token"))
	assert.False(t, h.fs.Exists("/home/me/.vpn/.done"))
	assert.Empty(t, h.brew.installs)
	assert.Empty(t, h.runner.Calls())
	assert.Empty(t, h.creds.Calls())
	assert.Empty(t, h.prompter.Prompts())
}

func TestApply_LegacyAWSPreset(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	item := func(field string) credential.Reference {
		return credential.Reference{Backend: "op", Item: "aws-item", Field: field}
	}
	h.creds.AddSecret(item("access key"), "AKIAEXAMPLE")
	h.creds.AddSecret(item("access secret"), secretValue)
	h.creds.AddSecret(item("EKS"), "platform-prod")
	h.runner.SetPath("aws", true)
	h.runner.SetPath("kubectl", true)
	eksArgs := []string{"eks", "update-kubeconfig", "--name", "file:///dev/stdin", "--region", "eu-central-1"}
	h.runner.AddResult("aws", eksArgs, ports.CommandResult{})
	h.fs.AddFile("/cfg/application-setup.yaml", `
interactive_apps:
  - name: awscli
    display_name: AWS CLI
    type: automated
    region: eu-central-1
    onepassword_item_id: aws-item
`)
	opts := NewRunOptions("").WithDocuments("/cfg/application-setup.yaml")

	report, err := h.app.Apply(context.Background(), opts)
	require.NoError(t, err)
	assert.Equal(t, []reconcile.Outcome{reconcile.OutcomeApplied, reconcile.OutcomeApplied}, outcomes(report.Results))

	home := ports.ExpandPath("~")
	content, ok := h.fs.Content(filepath.Join(home, ".aws", "config"))
	require.True(t, ok)
	cfg, err := ini.Load([]byte(content))
	require.NoError(t, err)
	assert.Equal(t, "eu-central-1", cfg.Section("default").Key("region").String())
	assert.Equal(t, "json", cfg.Section("default").Key("output").String())

	creds, ok := h.fs.Content(filepath.Join(home, ".aws", "credentials"))
	require.True(t, ok)
	assert.Contains(t, creds, "AKIAEXAMPLE")
	assert.True(t, h.fs.Exists(filepath.Join(home, ".jumpstart", "markers", "awscli")))
	assert.True(t, h.fs.Exists(filepath.Join(home, ".jumpstart", "markers", "awscli-eks")))

	require.True(t, h.runner.Called("aws", eksArgs...))
	calls := h.runner.Calls()
	assert.Equal(t, "platform-prod", calls[len(calls)-1].Stdin)
	assert.NotContains(t, h.logs.String(), secretValue)

	second, err := h.app.Apply(context.Background(), opts)
	require.NoError(t, err)
	assert.Equal(t, 2, second.Summary.AlreadySatisfied)
}

func TestApply_LegacyAWSPresetWithoutCluster(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	item := func(field string) credential.Reference {
		return credential.Reference{Backend: "op", Item: "aws-item", Field: field}
	}
	h.creds.AddSecret(item("access key"), "AKIAEXAMPLE")
	h.creds.AddSecret(item("access secret"), secretValue)
	h.runner.SetPath("aws", true)
	h.runner.SetPath("kubectl", true)
	h.fs.AddFile("/cfg/application-setup.yaml", `
interactive_apps:
  - name: awscli
    type: automated
    onepassword_item_id: aws-item
`)

	report, err := h.app.Apply(context.Background(), NewRunOptions("").WithDocuments("/cfg/application-setup.yaml"))
	require.NoError(t, err)
	require.Len(t, report.Results, 2)
	assert.Equal(t, reconcile.OutcomeApplied, report.Results[0].Outcome)
	assert.Equal(t, reconcile.OutcomeSkipped, report.Results[1].Outcome)
	assert.Contains(t, report.Results[1].Reason, "op://aws-item/EKS")
	assert.False(t, report.Summary.HasFailures())

	content, ok := h.fs.Content(filepath.Join(ports.ExpandPath("~"), ".aws", "config"))
	require.True(t, ok)
	assert.Contains(t, content, "eu-west-1")
	assert.False(t, h.runner.Called("aws", "eks", "update-kubeconfig", "--name", "file:///dev/stdin", "--region", "eu-west-1"))
}

func TestApply_LegacyOpenVPNPreset(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	item := func(field string) credential.Reference {
		return credential.Reference{Backend: "op", Item: "vpn-item", Field: field}
	}
	h.creds.AddSecret(item("username"), "alice")
	h.creds.AddSecret(item("password"), secretValue)
	h.creds.AddSecret(item("profile-download"), "https://vpn.example.com/rest/GetUserlogin")
	h.runner.SetPath("curl", true)
	h.runner.AddResult("mdfind", []string{"kMDItemCFBundleIdentifier == 'net.openvpn.connect.app'"},
		ports.CommandResult{Stdout: "/Applications/OpenVPN Connect.app\n"})
	curlArgs := []string{"--fail", "--silent", "--show-error", "--insecure", "--create-dirs", "--config", "-"}
	h.runner.AddResult("curl", curlArgs, ports.CommandResult{})
	h.runner.AddResult("open", []string{"-a", "OpenVPN Connect"}, ports.CommandResult{})
	h.fs.AddFile("/cfg/application-setup.yaml", `
interactive_apps:
  - name: slack
    display_name: Slack
    bundle_id: com.tinyspeck.slackmacgap
    type: interactive
  - name: openvpn-connect
    display_name: OpenVPN Connect
    bundle_id: net.openvpn.connect.app
    type: automated
    onepassword_item_id: vpn-item
`)
	h.runner.AddResult("mdfind", []string{"kMDItemCFBundleIdentifier == 'com.tinyspeck.slackmacgap'"},
		ports.CommandResult{Stdout: "/Applications/Slack.app\n"})

	report, err := h.app.Apply(context.Background(), NewRunOptions("").WithDocuments("/cfg/application-setup.yaml"))
	require.NoError(t, err)
	assert.Equal(t, []reconcile.Outcome{
		reconcile.OutcomeApplied, reconcile.OutcomeApplied, reconcile.OutcomeApplied,
	}, outcomes(report.Results))

	var download ports.CommandCall
	for _, c := range h.runner.Calls() {
		assert.NotContains(t, strings.Join(c.Args, " "), secretValue)
		if c.Command == "curl" {
			download = c
		}
	}
	require.Equal(t, "curl", download.Command)
	profile := filepath.Join(ports.ExpandPath("~"), "Downloads", "openvpn-profile.ovpn")
	assert.Equal(t, `url = "https://vpn.example.com/rest/GetUserlogin"
user = "alice:`+secretValue+`"
output = "`+profile+`"
`, download.Stdin)
	assert.True(t, h.runner.Called("open", "-a", "OpenVPN Connect"))

	prompts := h.prompter.Prompts()
	require.NotEmpty(t, prompts)
	assert.Contains(t, prompts[len(prompts)-1].Instructions, "~/Downloads/openvpn-profile.ovpn")
	assert.NotContains(t, h.logs.String(), secretValue)
	assert.NotContains(t, h.out.String(), secretValue)
}

func TestApply_SecretsNeverLeak(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.runner.AddResult("vpnctl", []string{"login"}, ports.CommandResult{
		ExitCode: 1,
		Stderr:   "invalid token " + secretValue,
	})
	h.fs.AddFile("/cfg/vpn.yaml", `
steps:
  - kind: automated-setup
    name: VPN
    credentials:
      token: op://vpn/token
    action:
      type: command
      command: vpnctl
      args: [login]
      stdin: '{{ secret "token" }}'
`)

	report, err := h.app.Apply(context.Background(), NewRunOptions("").WithDocuments("/cfg/vpn.yaml"))
	require.NoError(t, err)
	require.Len(t, report.Results, 1)
	assert.Equal(t, reconcile.OutcomeFailed, report.Results[0].Outcome)

	require.NoError(t, h.app.PrintResults(report))
	require.NoError(t, h.app.WriteJSON(report))

	assert.NotContains(t, report.Results[0].Reason, secretValue)
	assert.NotContains(t, h.out.String(), secretValue)
	assert.NotContains(t, h.logs.String(), secretValue)

	calls := h.runner.Calls()
	require.NotEmpty(t, calls)
	last := calls[len(calls)-1]
	assert.Equal(t, secretValue, last.Stdin)
	assert.NotContains(t, strings.Join(last.Args, " "), secretValue)
}

func TestApply_LogsCarryRunID(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.fs.AddFile("/cfg/apps.yaml", "folders: [/home/me/Work]\n")

	_, err := h.app.Apply(context.Background(), NewRunOptions("").WithDocuments("/cfg/apps.yaml"))
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(h.logs.String()), "\n")
	require.NotEmpty(t, lines)
	for _, line := range lines {
		var entry map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &entry))
		assert.Equal(t, "run-1", entry["run_id"], line)
	}
}

func TestApply_Privilege(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.runner.SetPath("sudo", true)
	h.runner.AddResult("sudo", []string{"-v"}, ports.CommandResult{})
	h.runner.AddResult("sudo", []string{"-n", "-v"}, ports.CommandResult{})
	h.runner.AddResult("sudo", []string{"-k"}, ports.CommandResult{})
	h.fs.AddFile("/cfg/jumpstart.yaml", "documents: [apps.yaml]\nprivilege: true\n")
	h.fs.AddFile("/cfg/apps.yaml", "formulae: [git, jq]\n")
	h.brew.installed["git"] = true

	report, err := h.app.Apply(context.Background(), NewRunOptions("/cfg/jumpstart.yaml").WithAssumeYes(true))
	require.NoError(t, err)
	assert.Equal(t, []string{"/cfg/apps.yaml"}, report.Documents)

	var sudo []string
	for _, c := range h.runner.Calls() {
		if c.Command == "sudo" {
			sudo = append(sudo, strings.Join(c.Args, " "))
		}
	}
	assert.Equal(t, []string{"-v", "-n -v", "-k"}, sudo, "one refresh for the single unsatisfied step")
	assert.Empty(t, h.prompter.Prompts())
}

func TestApply_PrivilegeDeclined(t *testing.T) {
	t.Parallel()

	h := newHarness(t, mocks.Reply{Response: ports.PromptSkip})
	h.fs.AddFile("/cfg/jumpstart.yaml", "documents: [apps.yaml]\nprivilege: true\n")
	h.fs.AddFile("/cfg/apps.yaml", "formulae: [git]\n")

	report, err := h.app.Apply(context.Background(), NewRunOptions("/cfg/jumpstart.yaml"))
	require.NoError(t, err)
	assert.Equal(t, reconcile.OutcomeApplied, report.Results[0].Outcome)
	assert.False(t, h.runner.Called("sudo", "-v"))
	require.Len(t, h.prompter.Prompts(), 1)
	assert.Equal(t, "Administrator privileges", h.prompter.Prompts()[0].Title)
}

func TestPlan_DoesNotMutate(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.brew.installed["git"] = true
	h.fs.AddFile("/cfg/apps.yaml", "formulae: [git, jq]\nfolders: [/home/me/Work]\n")

	plan, err := h.app.Plan(context.Background(), NewRunOptions("").WithDocuments("/cfg/apps.yaml"))
	require.NoError(t, err)

	require.Len(t, plan.Entries, 3)
	assert.Equal(t, reconcile.Satisfied, plan.Entries[0].Status)
	assert.Equal(t, reconcile.Unsatisfied, plan.Entries[1].Status)
	assert.Equal(t, 2, plan.Pending())
	assert.Empty(t, h.brew.installs)
	assert.False(t, h.fs.IsDir("/home/me/Work"))

	require.NoError(t, h.app.PrintPlan(plan))
	assert.Contains(t, h.out.String(), "jumpstart apply")
}

func TestDocuments(t *testing.T) {
	t.Parallel()

	t.Run("manifest list anchored at its directory", func(t *testing.T) {
		t.Parallel()
		h := newHarness(t)
		h.fs.AddFile("/cfg/jumpstart.yaml", "documents: [a.yaml, /abs/b.yaml]\n")

		docs, _, err := h.app.Documents(NewRunOptions("/cfg/jumpstart.yaml"))
		require.NoError(t, err)
		assert.Equal(t, []string{"/cfg/a.yaml", "/abs/b.yaml"}, docs)
	})

	t.Run("arguments override the manifest", func(t *testing.T) {
		t.Parallel()
		h := newHarness(t)
		h.fs.AddFile("/cfg/jumpstart.yaml", "documents: [a.yaml]\nvault: {age_dir: /vault}\n")

		docs, m, err := h.app.Documents(NewRunOptions("/cfg/jumpstart.yaml").WithDocuments("x.yaml"))
		require.NoError(t, err)
		assert.Equal(t, []string{"x.yaml"}, docs)
		assert.Equal(t, "/vault", m.Vault.AgeDir)
	})

	t.Run("missing manifest is fine with arguments", func(t *testing.T) {
		t.Parallel()
		h := newHarness(t)

		docs, m, err := h.app.Documents(NewRunOptions("/nope.yaml").WithDocuments("x.yaml"))
		require.NoError(t, err)
		assert.Equal(t, []string{"x.yaml"}, docs)
		assert.NotNil(t, m)
	})

	t.Run("missing manifest without arguments", func(t *testing.T) {
		t.Parallel()
		h := newHarness(t)

		_, _, err := h.app.Documents(NewRunOptions("/nope.yaml"))
		assert.True(t, config.IsUserError(err, config.ErrCodeConfigNotFound))
	})

	t.Run("empty document list", func(t *testing.T) {
		t.Parallel()
		h := newHarness(t)
		h.fs.AddFile("/cfg/jumpstart.yaml", "privilege: true\n")

		_, _, err := h.app.Documents(NewRunOptions("/cfg/jumpstart.yaml"))
		assert.True(t, config.IsUserError(err, config.ErrCodeManifestInvalid))
	})
}

func TestCheckSecrets(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	missing := credential.Reference{Backend: "op", Item: "vpn", Field: "otp"}
	h.creds.AddError(missing, errors.New("op: session expired"))
	h.fs.AddFile("/cfg/apps.yaml", `
steps:
  - kind: automated-setup
    name: VPN
    credentials:
      token: op://vpn/token
      otp: op://vpn/otp
    action: {type: command, command: vpnctl}
  - kind: automated-setup
    name: VPN again
    credentials:
      token: op://vpn/token
    action: {type: command, command: vpnctl}
`)

	checks, err := h.app.CheckSecrets(context.Background(), NewRunOptions("").WithDocuments("/cfg/apps.yaml"))
	require.NoError(t, err)
	require.Len(t, checks, 3)

	assert.Equal(t, "otp", checks[0].Alias)
	assert.False(t, checks[0].OK)
	assert.Contains(t, checks[0].Error, "credential unavailable")
	assert.True(t, checks[1].OK)
	assert.True(t, checks[2].OK)
	assert.Len(t, h.creds.Calls(), 2, "each reference resolves once")

	require.NoError(t, h.app.PrintSecrets(checks))
	assert.Contains(t, h.out.String(), "✓")
	assert.Contains(t, h.out.String(), "✗")
	assert.NotContains(t, h.out.String(), secretValue)
}
