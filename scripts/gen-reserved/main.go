package main

import (
	"compress/gzip"
	"crypto/rand"
	"flag"
	"fmt"
	"log"
	"math/big"
	"os"
	"path/filepath"
)

const alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// Writes gzipped reserved code files, one code per line, for local runs with
// RESERVED_CODES_ENABLED=true. A few well-known codes are always included so
// they can be tried by hand.
func main() {
	dataDir := flag.String("dir", "data/reserved", "output directory")
	files := flag.Int("files", 2, "number of files to write")
	count := flag.Int("count", 1000, "random codes per file")
	length := flag.Int("length", 10, "code length")
	flag.Parse()

	// Create directory if it doesn't exist
	if err := os.MkdirAll(*dataDir, 0755); err != nil {
		log.Fatalf("Failed to create directory: %v", err)
	}

	wellKnown := []string{"WELCOME2024", "SUMMER2024", "WINTER2024", "FREESHIPPING"}

	for i := 1; i <= *files; i++ {
		codes := make([]string, 0, *count+len(wellKnown))
		if i == 1 {
			codes = append(codes, wellKnown...)
		}
		for j := 0; j < *count; j++ {
			code, err := randomCode(*length)
			if err != nil {
				log.Fatalf("Failed to draw code: %v", err)
			}
			codes = append(codes, code)
		}

		filePath := filepath.Join(*dataDir, fmt.Sprintf("reserved%d.gz", i))
		if err := writeCodeFile(filePath, codes); err != nil {
			log.Fatalf("Failed to create %s: %v", filePath, err)
		}

		fmt.Printf("Created %s with %d codes\n", filePath, len(codes))
	}

	fmt.Println("\nWell-known reserved codes (file 1):")
	for _, code := range wellKnown {
		fmt.Printf("  - %s\n", code)
	}
}

func randomCode(length int) (string, error) {
	buf := make([]byte, length)
	radix := big.NewInt(int64(len(alphabet)))
	for i := range buf {
		n, err := rand.Int(rand.Reader, radix)
		if err != nil {
			return "", err
		}
		buf[i] = alphabet[n.Int64()]
	}
	return string(buf), nil
}

func writeCodeFile(filePath string, codes []string) error {
	file, err := os.Create(filePath)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	gzipWriter := gzip.NewWriter(file)
	defer gzipWriter.Close()

	for _, code := range codes {
		if _, err := fmt.Fprintf(gzipWriter, "%s\n", code); err != nil {
			return fmt.Errorf("failed to write code: %w", err)
		}
	}

	return nil
}
