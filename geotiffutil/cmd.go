/*
Copyright © 2021 the InMAP authors.
This file is part of geotiff.

geotiff is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

geotiff is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with geotiff.  If not, see <http://www.gnu.org/licenses/>.
*/

// Package geotiffutil contains the geotiff command line interface.
package geotiffutil

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/lnashier/viper"
	"github.com/sirupsen/logrus"
	"github.com/skratchdot/open-golang/open"
	"github.com/spatialmodel/geotiff"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// Cfg holds configuration information.
var Cfg *viper.Viper

var options []struct {
	name, usage, shorthand string
	defaultVal             interface{}
	flagsets               []*pflag.FlagSet
}

func init() {
	// Options are the configuration options available to the geotiff
	// command.
	options = []struct {
		name, usage, shorthand string
		defaultVal             interface{}
		flagsets               []*pflag.FlagSet
	}{
		{
			name: "config",
			usage: `
              config specifies the configuration file location.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "Input",
			usage: `
              Input specifies the GeoTIFF file to open. It can be a local
              path, an http(s):// URL, or a blob storage location
              (gs://bucket/key, s3://bucket/key or file://dir/key).`,
			shorthand:  "i",
			defaultVal: "input.tif",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "LogLevel",
			usage: `
              LogLevel specifies the minimum severity of the log messages
              to print: debug, info, warning or error.`,
			defaultVal: "info",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "Band",
			usage: `
              Band specifies the band to use, numbered from 1.`,
			shorthand:  "b",
			defaultVal: 1,
			flagsets:   []*pflag.FlagSet{readCmd.Flags(), statsCmd.Flags(), quicklookCmd.Flags(), convertCmd.Flags()},
		},
		{
			name: "Layout",
			usage: `
              Layout specifies how the band is written: "2d" writes one
              line per raster row and "1d" writes one value per line.`,
			defaultVal: "2d",
			flagsets:   []*pflag.FlagSet{readCmd.Flags()},
		},
		{
			name: "Expression",
			usage: `
              Expression is applied to every sample before it is written.
              The sample is available as 'value' and the band's no-data
              value as 'nodata', for example 'value == nodata ? 0 : value * 2'.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{readCmd.Flags()},
		},
		{
			name: "OutputFile",
			usage: `
              OutputFile specifies the path to write output to. It can be
              a blob storage location. The default for read is standard
              output, and for quicklook and convert it is the input file name
              with a .png or .nc extension.`,
			shorthand:  "o",
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{readCmd.Flags(), quicklookCmd.Flags(), convertCmd.Flags()},
		},
		{
			name: "Format",
			usage: `
              Format specifies the output format: text, toml or json.`,
			shorthand:  "f",
			defaultVal: "text",
			flagsets:   []*pflag.FlagSet{infoCmd.Flags()},
		},
		{
			name: "Checksum",
			usage: `
              Checksum specifies whether to compute a checksum of each band.`,
			defaultVal: false,
			flagsets:   []*pflag.FlagSet{infoCmd.Flags()},
		},
		{
			name: "View",
			usage: `
              View specifies whether to open the image in the system
              image viewer after it is written.`,
			defaultVal: false,
			flagsets:   []*pflag.FlagSet{quicklookCmd.Flags()},
		},
	}

	Cfg = viper.New()

	// Set the prefix for configuration environment variables.
	Cfg.SetEnvPrefix("GEOTIFF")
	Cfg.AutomaticEnv()

	for _, option := range options {
		for i, set := range option.flagsets {
			if i != 0 { // We don't want to create the same flag twice.
				set.AddFlag(option.flagsets[0].Lookup(option.name))
				continue
			}
			switch option.defaultVal.(type) {
			case string:
				if option.shorthand == "" {
					set.String(option.name, option.defaultVal.(string), option.usage)
				} else {
					set.StringP(option.name, option.shorthand, option.defaultVal.(string), option.usage)
				}
			case bool:
				if option.shorthand == "" {
					set.Bool(option.name, option.defaultVal.(bool), option.usage)
				} else {
					set.BoolP(option.name, option.shorthand, option.defaultVal.(bool), option.usage)
				}
			case int:
				if option.shorthand == "" {
					set.Int(option.name, option.defaultVal.(int), option.usage)
				} else {
					set.IntP(option.name, option.shorthand, option.defaultVal.(int), option.usage)
				}
			default:
				panic("invalid argument type")
			}
			Cfg.BindPFlag(option.name, set.Lookup(option.name))
		}
	}
}

func init() {
	// Link the commands together.
	Root.AddCommand(versionCmd)
	Root.AddCommand(infoCmd)
	Root.AddCommand(readCmd)
	Root.AddCommand(statsCmd)
	Root.AddCommand(quicklookCmd)
	Root.AddCommand(convertCmd)
}

// setConfig finds and reads in the configuration file, if there is one,
// and configures logging.
func setConfig() error {
	if cfgpath := Cfg.GetString("config"); cfgpath != "" {
		Cfg.SetConfigFile(cfgpath)
		if err := Cfg.ReadInConfig(); err != nil {
			return fmt.Errorf("geotiff: problem reading configuration file: %v", err)
		}
	}
	lvl, err := logrus.ParseLevel(Cfg.GetString("LogLevel"))
	if err != nil {
		return fmt.Errorf("geotiff: invalid LogLevel: %v", err)
	}
	logrus.SetLevel(lvl)
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	return nil
}

// description is printed by the root command before the dataset summary.
const description = `geotiff - Simple example to test GeoTIFF access
Compatible interface with GeoTIFF depth/height datasets via a pure-Go
GeoTIFF reader, or GDAL when built with the gdal tag.`

// Root is the main command. Run without a subcommand, it opens Input and
// prints a summary of it.
var Root = &cobra.Command{
	Use:   "geotiff",
	Short: "Inspect and read GeoTIFF rasters.",
	Long: `geotiff opens a GeoTIFF file and prints a summary of it: its driver, size,
projection, geotransform and, for each band, its storage and no-data value.
Use the subcommands specified below to read band data or export it.

Configuration can be changed by using a configuration file (and providing the
path to the file using the --config flag), by using command-line arguments,
or by setting environment variables in the format 'GEOTIFF_var' where 'var' is the
name of the variable to be set.
Refer to https://github.com/spf13/viper for additional configuration information.`,
	DisableAutoGenTag: true,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: func(*cobra.Command, []string) error { return setConfig() },
	RunE: func(cmd *cobra.Command, args []string) error {
		w := cmd.OutOrStdout()
		fmt.Fprintln(w, description)
		fmt.Fprintf(w, "\tGit commit:\t%s\n", geotiff.GitCommit)
		in, err := openInput(context.Background())
		if err != nil {
			return err
		}
		defer in.Close()
		fmt.Fprintf(w, "Opened %s\n", in.name)
		return in.ShowInformation(w)
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Long:  "version prints the version number of this version of geotiff.",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "geotiff v%s (%s)\n", geotiff.Version, geotiff.GitCommit)
	},
	DisableAutoGenTag: true,
}

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Print information about the input file.",
	Long: `info prints the driver, size, projection, geotransform and corner
coordinates of the input file and the storage, range and no-data value of
each of its bands, as text, TOML or JSON.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		in, err := openInput(context.Background())
		if err != nil {
			return err
		}
		defer in.Close()
		info, err := in.Info()
		if err != nil {
			return err
		}
		if Cfg.GetBool("Checksum") {
			for i := range info.Bands {
				sum, err := in.Checksum(info.Bands[i].Band)
				if err != nil {
					return err
				}
				info.Bands[i].Checksum = sum
			}
		}
		return writeInfo(cmd.OutOrStdout(), info, Cfg.GetString("Format"))
	},
	DisableAutoGenTag: true,
}

// writeInfo writes info to w in the given format.
func writeInfo(w io.Writer, info *geotiff.Info, format string) error {
	switch strings.ToLower(format) {
	case "text":
		return info.Write(w)
	case "toml":
		return toml.NewEncoder(w).Encode(info)
	case "json":
		b, err := json.MarshalIndent(info, "", "  ")
		if err != nil {
			return err
		}
		_, err = w.Write(append(b, '\n'))
		return err
	default:
		return fmt.Errorf("geotiffutil: invalid format %q; it must be text, toml or json", format)
	}
}

var readCmd = &cobra.Command{
	Use:   "read",
	Short: "Write the values of a band as CSV.",
	Long: `read converts the samples of a band to 32-bit floating point values and
writes them as comma separated values, optionally transforming each one
with an expression.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		in, err := openInput(ctx)
		if err != nil {
			return err
		}
		defer in.Close()
		band := Cfg.GetInt("Band")
		if _, err := in.DataType(band); err != nil {
			return err
		}
		nodata, hasNoData := in.Source().NoData(band)
		f, err := compileExpression(Cfg.GetString("Expression"), nodata, hasNoData)
		if err != nil {
			return err
		}
		return writeOutput(ctx, Cfg.GetString("OutputFile"), cmd.OutOrStdout(), func(w io.Writer) error {
			return writeCSV(w, in.Dataset, band, Cfg.GetString("Layout"), f)
		})
	},
	DisableAutoGenTag: true,
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print summary statistics of a band.",
	Long: `stats prints the number of valid samples of a band and their minimum,
maximum, mean and standard deviation. NaN and no-data samples are excluded.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		in, err := openInput(context.Background())
		if err != nil {
			return err
		}
		defer in.Close()
		s, err := in.Statistics(Cfg.GetInt("Band"))
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Count = %d\nMin = %g\nMax = %g\nMean = %g\nStdDev = %g\n",
			s.Count, s.Min, s.Max, s.Mean, s.StdDev)
		return nil
	},
	DisableAutoGenTag: true,
}

var quicklookCmd = &cobra.Command{
	Use:   "quicklook",
	Short: "Render a band as a PNG image.",
	Long: `quicklook renders a band as a PNG image with a black body color scale
stretched between the band's minimum and maximum. NaN and no-data samples
are transparent.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		in, err := openInput(ctx)
		if err != nil {
			return err
		}
		defer in.Close()
		out := defaultOutput(Cfg.GetString("OutputFile"), in.name, ".png")
		band := Cfg.GetInt("Band")
		err = writeOutput(ctx, out, cmd.OutOrStdout(), func(w io.Writer) error {
			return writeQuicklook(w, in.Dataset, band)
		})
		if err != nil {
			return err
		}
		cmd.Printf("Wrote %s\n", out)
		if Cfg.GetBool("View") && !IsBlob(out) {
			return open.Run(out)
		}
		return nil
	},
	DisableAutoGenTag: true,
}

var convertCmd = &cobra.Command{
	Use:   "convert",
	Short: "Convert a band to NetCDF.",
	Long: `convert writes a band as a 32-bit floating point variable of a NetCDF
file, along with its no-data value, units, geotransform and projection.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		in, err := openInput(ctx)
		if err != nil {
			return err
		}
		defer in.Close()
		out := defaultOutput(Cfg.GetString("OutputFile"), in.name, ".nc")
		u := new(uploader)
		local, err := u.localPath(out)
		if err != nil {
			return err
		}
		if err := writeNetCDF(local, in.Dataset, Cfg.GetInt("Band")); err != nil {
			return err
		}
		if err := u.upload(ctx); err != nil {
			return err
		}
		cmd.Printf("Wrote %s\n", out)
		return nil
	},
	DisableAutoGenTag: true,
}

// input is an opened Input file.
type input struct {
	*geotiff.Dataset

	// name is the location the file was requested from.
	name string
	// dir holds the downloaded copy of a remote file.
	dir string
}

// Close closes the dataset and removes any downloaded copy.
func (in *input) Close() error {
	err := in.Dataset.Close()
	if in.dir != "" {
		if rmErr := os.RemoveAll(in.dir); err == nil {
			err = rmErr
		}
	}
	return err
}

// openInput opens the Input file, downloading it first if it is remote.
func openInput(ctx context.Context) (*input, error) {
	name := os.ExpandEnv(Cfg.GetString("Input"))
	local, err := maybeDownload(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("Error opening Geotiff file: %s: %v", name, err)
	}
	in := &input{Dataset: geotiff.Open(local), name: name}
	if local != name {
		in.dir = filepath.Dir(local)
	}
	if !in.IsValid() {
		in.Close()
		return nil, fmt.Errorf("Error opening Geotiff file: %s", name)
	}
	return in, nil
}

// defaultOutput returns out, or the input location with its extension
// replaced by ext when out is empty. Outputs for files downloaded over HTTP
// are written to the working directory.
func defaultOutput(out, name, ext string) string {
	if out != "" {
		return os.ExpandEnv(out)
	}
	if strings.HasPrefix(name, "http://") || strings.HasPrefix(name, "https://") {
		if u, err := url.Parse(name); err == nil {
			name = path.Base(u.Path)
		}
	}
	return strings.TrimSuffix(name, filepath.Ext(name)) + ext
}

// writeOutput calls write with a writer for path: stdout when path is
// empty or "-", a local file, or a temporary file uploaded to blob storage
// afterwards.
func writeOutput(ctx context.Context, path string, stdout io.Writer, write func(io.Writer) error) error {
	path = os.ExpandEnv(path)
	if path == "" || path == "-" {
		return write(stdout)
	}
	u := new(uploader)
	local, err := u.localPath(path)
	if err != nil {
		return err
	}
	buf := new(bytes.Buffer)
	if err := write(buf); err != nil {
		return err
	}
	f, err := os.Create(local)
	if err != nil {
		return fmt.Errorf("geotiffutil: creating output file: %v", err)
	}
	if _, err := buf.WriteTo(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return u.upload(ctx)
}
