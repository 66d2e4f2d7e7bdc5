// Package status turns the output of a worker that died during bootstrap into a
// user-facing diagnosis and removes secrets from what is shown.
package status

import (
	"regexp"
	"strings"
)

// FailureClass broad category of a bootstrap failure
type FailureClass string

const (
	FailureClassMissingModule   FailureClass = "MISSING_MODULE"
	FailureClassGPUOutOfMemory  FailureClass = "GPU_OUT_OF_MEMORY"
	FailureClassAddressInUse    FailureClass = "ADDRESS_IN_USE"
	FailureClassModelMissing    FailureClass = "MODEL_MISSING"
	FailureClassPermission      FailureClass = "PERMISSION_DENIED"
	FailureClassCommandNotFound FailureClass = "COMMAND_NOT_FOUND"
	FailureClassUnknown         FailureClass = "UNKNOWN"
)

// maxExcerptLines lines of worker output kept in a diagnosis
const maxExcerptLines = 20

// Diagnosis user-facing explanation of a bootstrap failure
type Diagnosis struct {
	Class       FailureClass `json:"class"`
	UserMessage string       `json:"userMessage"`
	Suggestion  string       `json:"suggestion"`
	ErrorCode   string       `json:"errorCode"`
	// Excerpt is the redacted tail of the worker output
	Excerpt string `json:"excerpt"`
}

// Summary one-line form for terminals
func (d *Diagnosis) Summary() string {
	if d == nil {
		return ""
	}
	return d.UserMessage + ". " + d.Suggestion
}

type failureRule struct {
	class     FailureClass
	pattern   *regexp.Regexp
	diagnosis Diagnosis
}

type sensitivePattern struct {
	pattern     *regexp.Regexp
	replacement string
	description string
}

// BootstrapDiagnoser classifies captured worker output
type BootstrapDiagnoser struct {
	rules             []*failureRule
	sensitivePatterns []*sensitivePattern
}

// NewBootstrapDiagnoser creates a diagnoser with the default rules
func NewBootstrapDiagnoser() *BootstrapDiagnoser {
	return &BootstrapDiagnoser{
		rules:             buildDefaultRules(),
		sensitivePatterns: buildDefaultSensitivePatterns(),
	}
}

// buildDefaultRules rules are tried in order; the first match wins
func buildDefaultRules() []*failureRule {
	return []*failureRule{
		{
			class:   FailureClassMissingModule,
			pattern: regexp.MustCompile(`(?m)\b(?:ImportError|ModuleNotFoundError)\b`),
			diagnosis: Diagnosis{
				UserMessage: "Model worker is missing a Python dependency",
				Suggestion:  "Install the worker requirements into the environment the worker command uses",
				ErrorCode:   "BOOT_MISSING_MODULE",
			},
		},
		{
			class:   FailureClassGPUOutOfMemory,
			pattern: regexp.MustCompile(`(?i)cuda out of memory|OutOfMemoryError|CUBLAS_STATUS_ALLOC_FAILED`),
			diagnosis: Diagnosis{
				UserMessage: "Not enough GPU memory to load the model",
				Suggestion:  "Close other GPU workloads or configure a smaller or quantized model",
				ErrorCode:   "BOOT_GPU_OOM",
			},
		},
		{
			class:   FailureClassAddressInUse,
			pattern: regexp.MustCompile(`(?i)address already in use|EADDRINUSE`),
			diagnosis: Diagnosis{
				UserMessage: "Worker port is already in use",
				Suggestion:  "Another worker may still be running; run stop first or change the worker port",
				ErrorCode:   "BOOT_ADDRESS_IN_USE",
			},
		},
		{
			class:   FailureClassModelMissing,
			pattern: regexp.MustCompile(`(?i)(?:model|weights|checkpoint)[^\n]*(?:not found|no such file)|FileNotFoundError[^\n]*\.(?:gguf|bin|safetensors|pt)`),
			diagnosis: Diagnosis{
				UserMessage: "Model files were not found",
				Suggestion:  "Download the model or check the model path in the worker configuration",
				ErrorCode:   "BOOT_MODEL_MISSING",
			},
		},
		{
			class:   FailureClassPermission,
			pattern: regexp.MustCompile(`(?i)permission denied|EACCES|PermissionError`),
			diagnosis: Diagnosis{
				UserMessage: "Worker was denied access to a file or device",
				Suggestion:  "Check permissions on the model directory, the log directory and the GPU device",
				ErrorCode:   "BOOT_PERMISSION_DENIED",
			},
		},
		{
			class:   FailureClassCommandNotFound,
			pattern: regexp.MustCompile(`(?i)executable file not found|no such file or directory|command not found`),
			diagnosis: Diagnosis{
				UserMessage: "Worker command could not be executed",
				Suggestion:  "Check worker.command and worker.work_dir in the configuration",
				ErrorCode:   "BOOT_COMMAND_NOT_FOUND",
			},
		},
	}
}

var unknownDiagnosis = Diagnosis{
	Class:       FailureClassUnknown,
	UserMessage: "Model worker exited during startup",
	Suggestion:  "See the worker log for details",
	ErrorCode:   "BOOT_UNKNOWN",
}

// buildDefaultSensitivePatterns patterns applied in order to every excerpt
func buildDefaultSensitivePatterns() []*sensitivePattern {
	return []*sensitivePattern{
		// URLs with embedded credentials
		{
			pattern:     regexp.MustCompile(`(https?://)[^:/\s]+:[^@\s]+@`),
			replacement: "${1}[redacted]@",
			description: "URL credentials",
		},
		{
			pattern:     regexp.MustCompile(`\bhf_[A-Za-z0-9]{16,}\b`),
			replacement: "[hf-token]",
			description: "Hugging Face token",
		},
		{
			pattern:     regexp.MustCompile(`\bsk-[A-Za-z0-9_-]{16,}\b`),
			replacement: "[api-key]",
			description: "API secret key",
		},
		{
			pattern:     regexp.MustCompile(`(?i)\bbearer\s+[A-Za-z0-9._~+/=-]{8,}`),
			replacement: "Bearer [redacted]",
			description: "bearer token",
		},
		{
			pattern:     regexp.MustCompile(`(?i)\b((?:[a-z0-9]+_)*(?:api_?key|token|secret|password))(\s*[=:]\s*)[^\s"',;]+`),
			replacement: "${1}${2}[redacted]",
			description: "key=value secret",
		},
		// Home directories reveal the local user name
		{
			pattern:     regexp.MustCompile(`/(?:home|Users)/[^/\s]+`),
			replacement: "~",
			description: "home directory",
		},
		{
			pattern:     regexp.MustCompile(`(?i)\b[A-Z]:\\Users\\[^\\\s]+`),
			replacement: "~",
			description: "windows profile directory",
		},
		// Private IP ranges: 10.x.x.x, 172.16-31.x.x, 192.168.x.x
		{
			pattern:     regexp.MustCompile(`\b10\.\d{1,3}\.\d{1,3}\.\d{1,3}\b`),
			replacement: "[internal-ip]",
			description: "10.x.x.x private IP",
		},
		{
			pattern:     regexp.MustCompile(`\b172\.(1[6-9]|2[0-9]|3[0-1])\.\d{1,3}\.\d{1,3}\b`),
			replacement: "[internal-ip]",
			description: "172.16-31.x.x private IP",
		},
		{
			pattern:     regexp.MustCompile(`\b192\.168\.\d{1,3}\.\d{1,3}\b`),
			replacement: "[internal-ip]",
			description: "192.168.x.x private IP",
		},
	}
}

// Diagnose classifies worker output. exitCode -1 means the worker never started.
func (d *BootstrapDiagnoser) Diagnose(exitCode int, output string) *Diagnosis {
	result := unknownDiagnosis
	for _, rule := range d.rules {
		if exitCode != -1 && rule.class == FailureClassCommandNotFound {
			// a running worker can print "no such file" for many reasons
			continue
		}
		if rule.pattern.MatchString(output) {
			result = rule.diagnosis
			result.Class = rule.class
			break
		}
	}
	if exitCode == -1 && result.Class == FailureClassUnknown {
		result = d.commandDiagnosis()
	}
	result.Excerpt = d.SanitizeSensitiveInfo(tailLines(output, maxExcerptLines))
	return &result
}

func (d *BootstrapDiagnoser) commandDiagnosis() Diagnosis {
	for _, rule := range d.rules {
		if rule.class == FailureClassCommandNotFound {
			result := rule.diagnosis
			result.Class = rule.class
			return result
		}
	}
	return unknownDiagnosis
}

// SanitizeSensitiveInfo redacts tokens, keys, home directories and private IPs
func (d *BootstrapDiagnoser) SanitizeSensitiveInfo(message string) string {
	if message == "" {
		return message
	}

	result := message
	for _, sp := range d.sensitivePatterns {
		result = sp.pattern.ReplaceAllString(result, sp.replacement)
	}
	return result
}

// AddRule registers an extra classification rule ahead of the defaults
func (d *BootstrapDiagnoser) AddRule(class FailureClass, pattern *regexp.Regexp, diagnosis Diagnosis) {
	d.rules = append([]*failureRule{{class: class, pattern: pattern, diagnosis: diagnosis}}, d.rules...)
}

// AddSensitivePattern adds a custom pattern for redaction
func (d *BootstrapDiagnoser) AddSensitivePattern(pattern *regexp.Regexp, replacement, description string) {
	d.sensitivePatterns = append(d.sensitivePatterns, &sensitivePattern{
		pattern:     pattern,
		replacement: replacement,
		description: description,
	})
}

// tailLines keeps the last n non-blank lines
func tailLines(output string, n int) string {
	lines := strings.Split(strings.TrimRight(output, "\r\n"), "\n")
	kept := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) != "" {
			kept = append(kept, line)
		}
	}
	if len(kept) > n {
		kept = kept[len(kept)-n:]
	}
	return strings.Join(kept, "\n")
}
