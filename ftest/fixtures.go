package ftest

// SampleScript is a filters set as written by the filters editor.
const SampleScript = `require ["fileinto"];

# Filter: test1
if anyof (header :contains "Subject" "Test") {
    fileinto "Test";
}

# Filter: test2
if allof (header :is "From" "toto@toto.com", size :over 100K) {
    fileinto "Toto";
    stop;
}
`

// HandWrittenScript is valid sieve the filters editor cannot represent.
const HandWrittenScript = `require ["fileinto", "envelope"];

if envelope :domain "from" "example.com" {
    fileinto "Example";
} elsif exists "X-Spam" {
    discard;
}
`

// SampleScripts mirrors a typical account: two sets, the first active.
func SampleScripts() map[string]string {
	return map[string]string{
		"main_script":   SampleScript,
		"second_script": SampleScript,
	}
}
