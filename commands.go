package main

import (
	"bytes"
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/spf13/pflag"

	"pixel-steganography/carrier"
	"pixel-steganography/models"
	"pixel-steganography/stego"
)

// usageError marks bad command lines; they exit with status 2.
type usageError struct{ err error }

func (e usageError) Error() string { return e.err.Error() }
func (e usageError) Unwrap() error { return e.err }

func flagError(err error) error {
	if errors.Is(err, pflag.ErrHelp) {
		return err
	}
	return usageError{err}
}

func parseBitwidth(raw string) (int, error) {
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, usageError{fmt.Errorf("invalid bitwidth %q", raw)}
	}
	if _, err := stego.ParseBitwidth(n); err != nil {
		return 0, usageError{err}
	}
	return n, nil
}

func positional(fs *pflag.FlagSet, names ...string) error {
	if fs.NArg() != len(names) {
		return usageError{fmt.Errorf("expected arguments %v, got %d", names, fs.NArg())}
	}
	return nil
}

func loadCarrier(path string) (carrier.Carrier, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read carrier: %v", err)
	}
	cover, err := carrier.Load(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cover, nil
}

func runEncode(args []string) error {
	var (
		footprint bool
		output    string
	)
	fs := pflag.NewFlagSet("encode", pflag.ContinueOnError)
	fs.BoolVarP(&footprint, "footprint", "f", false, "records bitwidth, extension and size in the carrier")
	fs.StringVarP(&output, "output", "o", "out.png", "file name of result")
	if err := fs.Parse(args); err != nil {
		return flagError(err)
	}
	if err := positional(fs, "file", "carrier", "bitwidth"); err != nil {
		return err
	}
	lsbBits, err := parseBitwidth(fs.Arg(2))
	if err != nil {
		return err
	}

	secretPath, coverPath := fs.Arg(0), fs.Arg(1)
	secretData, err := os.ReadFile(secretPath)
	if err != nil {
		return fmt.Errorf("failed to read secret file: %v", err)
	}
	cover, err := loadCarrier(coverPath)
	if err != nil {
		return err
	}

	if !fs.Changed("output") && cover.OutputFormat() != "png" {
		output = "out." + cover.OutputFormat()
	}
	format := carrier.FormatForPath(output)
	if format == "" {
		format = cover.OutputFormat()
	}

	samples := cover.Samples()
	original := bytes.Clone(samples)
	lsb := stego.NewLSBSteganography(&models.StegoConfig{
		LSBBits:        lsbBits,
		UseFootprint:   footprint,
		SecretFilename: secretPath,
	})
	if err := lsb.Embed(samples, secretData); err != nil {
		return err
	}

	var out bytes.Buffer
	if err := cover.Encode(&out, format); err != nil {
		return err
	}
	if err := os.WriteFile(output, out.Bytes(), 0o644); err != nil {
		return fmt.Errorf("failed to write result: %v", err)
	}

	log.Printf("✓ Embedded %d bytes into %s (%d samples, bitwidth %d, PSNR %s dB)",
		len(secretData), output, len(samples), lsbBits, carrier.FormatPSNR(carrier.CalculatePSNR(original, samples)))
	return nil
}

func runDecode(args []string) error {
	var (
		lsbBits   int
		footprint bool
		output    string
	)
	fs := pflag.NewFlagSet("decode", pflag.ContinueOnError)
	fs.IntVarP(&lsbBits, "bitwidth", "b", 0, "the bitwidth to use")
	fs.BoolVarP(&footprint, "footprint", "f", false, "infer bitwidth, extension and size")
	fs.StringVarP(&output, "output", "o", "out", "file name of result, without extension")
	if err := fs.Parse(args); err != nil {
		return flagError(err)
	}
	if err := positional(fs, "carrier"); err != nil {
		return err
	}

	explicit := fs.Changed("bitwidth")
	switch {
	case explicit && footprint:
		return usageError{errors.New("argument --footprint not allowed with argument --bitwidth")}
	case !explicit && !footprint:
		return usageError{errors.New("one of the arguments --bitwidth --footprint is required")}
	case explicit:
		if _, err := stego.ParseBitwidth(lsbBits); err != nil {
			return usageError{err}
		}
	}

	cover, err := loadCarrier(fs.Arg(0))
	if err != nil {
		return err
	}

	lsb := stego.NewLSBSteganography(&models.StegoConfig{LSBBits: lsbBits, UseFootprint: footprint})
	secret, err := lsb.Extract(cover.Samples())
	if err != nil {
		return err
	}

	name := secret.FileName(output)
	if err := os.WriteFile(name, secret.Content, 0o644); err != nil {
		return fmt.Errorf("failed to write result: %v", err)
	}
	log.Printf("✓ Recovered %d bytes into %s", len(secret.Content), name)
	return nil
}

func runCapacity(args []string) error {
	var (
		footprint bool
		name      string
	)
	fs := pflag.NewFlagSet("capacity", pflag.ContinueOnError)
	fs.BoolVarP(&footprint, "footprint", "f", false, "account for the footprint header")
	fs.StringVar(&name, "name", "", "name of the file to hide, for its extension")
	if err := fs.Parse(args); err != nil {
		return flagError(err)
	}
	if err := positional(fs, "carrier", "bitwidth"); err != nil {
		return err
	}
	lsbBits, err := parseBitwidth(fs.Arg(1))
	if err != nil {
		return err
	}

	cover, err := loadCarrier(fs.Arg(0))
	if err != nil {
		return err
	}

	lsb := stego.NewLSBSteganography(&models.StegoConfig{
		LSBBits:        lsbBits,
		UseFootprint:   footprint,
		SecretFilename: name,
	})
	capacity, err := lsb.CalculateCapacity(len(cover.Samples()))
	if err != nil {
		return err
	}

	meta := cover.Metadata()
	fmt.Printf("%s carrier, %d samples: %d bytes at bitwidth %d\n", meta.Format, len(cover.Samples()), capacity, lsbBits)
	return nil
}
