package status

import (
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// TestProperty_SecretsNeverLeak checks that generated secrets never survive redaction
func TestProperty_SecretsNeverLeak(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	parameters.MaxSize = 50

	properties := gopter.NewProperties(parameters)
	diagnoser := NewBootstrapDiagnoser()

	properties.Property("hugging face tokens are removed", prop.ForAll(
		func(token, prefix, suffix string) bool {
			result := diagnoser.SanitizeSensitiveInfo(prefix + token + suffix)
			return !strings.Contains(result, token)
		},
		genHFToken(),
		genMessagePrefix(),
		genMessageSuffix(),
	))

	properties.Property("home directory user names are removed", prop.ForAll(
		func(user, prefix string) bool {
			result := diagnoser.SanitizeSensitiveInfo(prefix + "/home/" + user + "/models/legal-7b.gguf")
			return !strings.Contains(result, "/home/"+user) && strings.Contains(result, "~/models/legal-7b.gguf")
		},
		genUserName(),
		genMessagePrefix(),
	))

	properties.Property("key=value secrets are removed", prop.ForAll(
		func(key, value string) bool {
			result := diagnoser.SanitizeSensitiveInfo("env " + key + "=" + value + " loaded")
			return !strings.Contains(result, value) && strings.Contains(result, key+"=")
		},
		gen.OneConstOf("API_KEY", "HF_TOKEN", "DB_PASSWORD", "client_secret", "apikey"),
		genSecretValue(),
	))

	properties.TestingRun(t)
}

// TestProperty_SanitizationIsIdempotent redacting twice changes nothing
func TestProperty_SanitizationIsIdempotent(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)
	diagnoser := NewBootstrapDiagnoser()

	properties.Property("sanitization is idempotent", prop.ForAll(
		func(token, user, prefix string) bool {
			message := prefix + " HF_TOKEN=" + token + " /home/" + user + "/cache"
			once := diagnoser.SanitizeSensitiveInfo(message)
			return diagnoser.SanitizeSensitiveInfo(once) == once
		},
		genHFToken(),
		genUserName(),
		genMessagePrefix(),
	))

	properties.Property("messages without sensitive info are unchanged", prop.ForAll(
		func(message string) bool {
			return diagnoser.SanitizeSensitiveInfo(message) == message
		},
		genSafeMessage(),
	))

	properties.TestingRun(t)
}

// TestProperty_ClassificationIgnoresNoise surrounding log noise never changes the class
func TestProperty_ClassificationIgnoresNoise(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)
	diagnoser := NewBootstrapDiagnoser()

	properties.Property("import errors are always recognized", prop.ForAll(
		func(noise []string, module string) bool {
			output := strings.Join(noise, "\n") + "\nImportError: No module named " + module + "\n"
			d := diagnoser.Diagnose(1, output)
			return d.Class == FailureClassMissingModule && strings.Contains(d.Excerpt, "ImportError")
		},
		gen.SliceOf(genSafeMessage()),
		gen.OneConstOf("torch", "vllm", "transformers", "llama_cpp"),
	))

	properties.TestingRun(t)
}

func genHFToken() gopter.Gen {
	return gen.SliceOfN(24, gen.AlphaNumChar()).Map(func(chars []rune) string {
		return "hf_" + string(chars)
	})
}

func genUserName() gopter.Gen {
	return gen.OneConstOf("alice", "bob", "paralegal", "jdoe", "counsel01")
}

func genSecretValue() gopter.Gen {
	return gen.SliceOfN(12, gen.AlphaNumChar()).Map(func(chars []rune) string {
		return "v" + string(chars)
	})
}

func genMessagePrefix() gopter.Gen {
	return gen.OneConstOf(
		"",
		"Error: ",
		"Traceback: ",
		"loading model from ",
		"worker failed: ",
	)
}

func genMessageSuffix() gopter.Gen {
	return gen.OneConstOf(
		"",
		" was rejected",
		"\n",
		" (401)",
	)
}

func genSafeMessage() gopter.Gen {
	return gen.OneConstOf(
		"Loading checkpoint shards: 100%",
		"Starting model worker",
		"Using device cuda:0",
		"max_new_tokens: 512",
		"Warming up legal-7b",
		"INFO: Uvicorn running",
	)
}
