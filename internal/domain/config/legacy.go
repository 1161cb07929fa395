package config

import (
	"fmt"
	"path"

	"github.com/felixgeelhaar/jumpstart/internal/domain/credential"
	"github.com/felixgeelhaar/jumpstart/internal/domain/step"
	"github.com/felixgeelhaar/jumpstart/internal/validation"
)

const (
	defaultInstructions = "Please complete the setup"
	defaultAWSRegion    = "eu-west-1"

	// MarkerDir holds the markers of built-in presets.
	MarkerDir = "~/.jumpstart/markers"
)

// legacyApp parses an interactive_apps entry:
//
//	- name: slack
//	  display_name: Slack
//	  bundle_id: com.tinyspeck.slackmacgap
//	  type: interactive
//	  instructions: Sign in to your workspace.
//
// Automated entries expand to the steps of a built-in preset chosen by name.
// An automated entry with no preset becomes an interactive step, so the
// operator can finish it by hand.
func (p *parser) legacyApp(n node) ([]step.Descriptor, error) {
	if loc, err := n.only("name", "display_name", "bundle_id", "type", "instructions", "onepassword_item_id", "region"); err != nil {
		return nil, p.fail(loc, err)
	}
	v, err := p.strs(n, "name", "display_name", "bundle_id", "type", "instructions", "onepassword_item_id", "region")
	if err != nil {
		return nil, err
	}
	app := legacyEntry{
		name:         v[0],
		display:      v[1],
		bundleID:     v[2],
		instructions: v[4],
		itemID:       v[5],
		region:       v[6],
	}

	switch typ := v[3]; typ {
	case "", "interactive":
		if app.display == "" {
			return nil, p.fail(n.at("display_name"), fmt.Errorf("%w %q", step.ErrMissingField, "display_name"))
		}
		if app.instructions == "" {
			app.instructions = defaultInstructions
		}
		d, err := step.NewInteractiveSetup(app.display, app.display, app.instructions, app.bundleID, "")
		if err != nil {
			return nil, p.fail(n.loc, err)
		}
		return []step.Descriptor{d}, nil
	case "automated":
		preset, ok := automatedPresets[app.name]
		if !ok {
			d, err := manualFallback(app)
			if err != nil {
				return nil, p.fail(n.loc, err)
			}
			return []step.Descriptor{d}, nil
		}
		if app.itemID == "" {
			return nil, p.fail(n.at("onepassword_item_id"), fmt.Errorf("%w %q", step.ErrMissingField, "onepassword_item_id"))
		}
		if app.display == "" {
			app.display = preset.name
		}
		ds, err := preset.build(app)
		if err != nil {
			return nil, p.fail(n.loc, err)
		}
		return ds, nil
	default:
		return nil, p.fail(n.at("type"), fmt.Errorf("type must be \"interactive\" or \"automated\", got %q", typ))
	}
}

type legacyEntry struct {
	name         string
	display      string
	bundleID     string
	instructions string
	itemID       string
	region       string
}

func (e legacyEntry) ref(field string) credential.Reference {
	return credential.Reference{Backend: credential.BackendOnePassword, Item: e.itemID, Field: field}
}

type preset struct {
	name  string
	build func(legacyEntry) ([]step.Descriptor, error)
}

var automatedPresets = map[string]preset{
	"awscli":          {name: "AWS CLI", build: awsCLIPreset},
	"openvpn-connect": {name: "OpenVPN Connect", build: openVPNPreset},
}

func marker(name string) string {
	return path.Join(MarkerDir, name)
}

// manualFallback turns an automated entry without a preset into an
// interactive step. The application is opened only when it is a bundle.
func manualFallback(e legacyEntry) (step.Descriptor, error) {
	display := e.display
	if display == "" {
		display = e.name
	}
	if display == "" {
		return nil, fmt.Errorf("%w %q", step.ErrMissingField, "name")
	}
	launch := ""
	if e.bundleID != "" {
		launch = display
	}
	instructions := e.instructions
	if instructions == "" {
		instructions = fmt.Sprintf("No automated setup exists for %s. %s", display, defaultInstructions)
	}
	return step.NewInteractiveSetup(display, launch, instructions, e.bundleID, "")
}

// awsCLIPreset configures the default AWS profile from a 1Password item with
// "access key" and "access secret" fields, then, when the item has an "EKS"
// field, adds that cluster to the kubeconfig.
func awsCLIPreset(e legacyEntry) ([]step.Descriptor, error) {
	region := e.region
	if region == "" {
		region = defaultAWSRegion
	}
	if err := validation.ValidateRegion(region); err != nil {
		return nil, fmt.Errorf("%w %q: %v", step.ErrInvalidField, "region", err)
	}

	cli, err := step.NewAutomatedSetup(e.display,
		[]step.Credential{
			{Alias: "access_key", Ref: e.ref("access key")},
			{Alias: "access_secret", Ref: e.ref("access secret")},
		},
		step.Action{
			Type: step.ActionWriteINI,
			Path: "~/.aws/credentials",
			Entries: []step.INIEntry{
				{Section: "default", Key: "aws_access_key_id", Value: `{{ secret "access_key" }}`},
				{Section: "default", Key: "aws_secret_access_key", Value: `{{ secret "access_secret" }}`},
			},
		},
		step.WithFollowUp(step.Action{
			Type: step.ActionWriteINI,
			Path: "~/.aws/config",
			Entries: []step.INIEntry{
				{Section: "default", Key: "region", Value: region},
				{Section: "default", Key: "output", Value: "json"},
			},
		}),
		step.WithRequires("aws"),
		step.WithMarker(marker("awscli")),
	)
	if err != nil {
		return nil, err
	}

	// aws reads --name from stdin through its file:// parameter loader, so
	// the cluster name never reaches argv.
	eks, err := step.NewAutomatedSetup(e.display+" EKS",
		[]step.Credential{{Alias: "cluster", Ref: e.ref("EKS"), Optional: true}},
		step.Action{
			Type:    step.ActionCommand,
			Command: "aws",
			Args:    []string{"eks", "update-kubeconfig", "--name", "file:///dev/stdin", "--region", region},
			Stdin:   `{{ secret "cluster" }}`,
		},
		step.WithRequires("aws", "kubectl"),
		step.WithMarker(marker("awscli-eks")),
	)
	if err != nil {
		return nil, err
	}
	return []step.Descriptor{cli, eks}, nil
}

// openVPNProfile is where the downloaded profile lands for import.
const openVPNProfile = "~/Downloads/openvpn-profile.ovpn"

// openVPNPreset downloads the VPN profile with the username, password and
// profile-download URL of a 1Password item, then asks the operator to
// import it. curl reads its whole configuration, credentials included, from
// stdin.
func openVPNPreset(e legacyEntry) ([]step.Descriptor, error) {
	var gate []step.AutomatedOption
	if e.bundleID != "" {
		gate = append(gate, step.WithApp(e.bundleID))
	}
	download, err := step.NewAutomatedSetup(e.display+" profile",
		[]step.Credential{
			{Alias: "username", Ref: e.ref("username")},
			{Alias: "password", Ref: e.ref("password")},
			{Alias: "url", Ref: e.ref("profile-download")},
		},
		step.Action{
			Type:    step.ActionCommand,
			Command: "curl",
			Args:    []string{"--fail", "--silent", "--show-error", "--insecure", "--create-dirs", "--config", "-"},
			Stdin: `url = {{ secret "url" | quote }}
user = {{ printf "%s:%s" (secret "username") (secret "password") | quote }}
output = {{ path "` + openVPNProfile + `" | quote }}
`,
		},
		append(gate,
			step.WithRequires("curl"),
			step.WithMarker(marker("openvpn-profile")),
		)...,
	)
	if err != nil {
		return nil, err
	}

	instructions := e.instructions
	if instructions == "" {
		instructions = "Import the profile from " + openVPNProfile + ": click 'Import Profile' or '+', " +
			"select the file from Downloads (or drag it into the window), then finish the profile setup."
	}
	importStep, err := step.NewInteractiveSetup(e.display, e.display, instructions, e.bundleID, marker("openvpn-import"))
	if err != nil {
		return nil, err
	}
	return []step.Descriptor{download, importStep}, nil
}
