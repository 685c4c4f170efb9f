package main

import (
	"bufio"
	"context"
	"fmt"
	"os"

	"github.com/miekg/dns"
	"github.com/spf13/cobra"

	"github.com/dnssigner/zoneengine/config"
	"github.com/dnssigner/zoneengine/keystore"
	"github.com/dnssigner/zoneengine/zone"
)

var signCmd = &cobra.Command{
	Use:   "sign <zonefile>",
	Short: "Load a zone file, build the denial chain and sign it",
	Args:  cobra.ExactArgs(1),
	RunE:  runSign,
}

var signKeyDB string

func init() {
	signCmd.Flags().StringVar(&signKeyDB, "keydb", "", "SQLite key store to load active signing keys from")
}

var nsecifyCmd = &cobra.Command{
	Use:   "nsecify <zonefile>",
	Short: "Load a zone file and rebuild its denial chain without signing",
	Args:  cobra.ExactArgs(1),
	RunE:  runNsecify,
}

func loadZoneFile(path, zoneName string) (*zone.ZoneData, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	zd := zone.NewZoneData(zoneName)

	zp := dns.NewZoneParser(bufio.NewReader(f), "", "")
	zp.SetIncludeAllowed(true)

	apexSeen := false
	for rr, ok := zp.Next(); ok; rr, ok = zp.Next() {
		atApex := !apexSeen && zone.Canon(rr.Header().Name) == zone.Canon(zoneName)
		if atApex {
			apexSeen = true
		}
		if err := zd.AddRR(rr, atApex); err != nil {
			return nil, fmt.Errorf("adding %s: %w", rr.Header().Name, err)
		}
		if soa, ok := rr.(*dns.SOA); ok {
			zd.SetInboundSerial(soa.Serial)
		}
	}
	if err := zp.Err(); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return zd, nil
}

func prepareZone(path string) (*zone.ZoneData, error) {
	zd, err := loadZoneFile(path, globals.Zone)
	if err != nil {
		return nil, err
	}
	if err := zd.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	if err := zd.Entize(); err != nil {
		return nil, fmt.Errorf("entize: %w", err)
	}
	if violations := zd.Examine(zone.ExamineFile); len(violations) > 0 {
		for _, v := range violations {
			fmt.Fprintf(os.Stderr, "warning: %s\n", v.Error())
		}
	}
	return zd, nil
}

func runNsecify(cmd *cobra.Command, args []string) error {
	zd, err := prepareZone(args[0])
	if err != nil {
		return err
	}
	if err := zd.Nsecify(); err != nil {
		return fmt.Errorf("nsecify: %w", err)
	}
	printZone(zd)
	return nil
}

func runSign(cmd *cobra.Command, args []string) error {
	if globals.CfgFile == "" {
		return fmt.Errorf("sign requires --config")
	}
	pol, err := config.Load(globals.CfgFile)
	if err != nil {
		return err
	}

	zd, err := prepareZone(args[0])
	if err != nil {
		return err
	}
	zd.Policy = pol.ToEnginePolicy()

	if zd.Policy.NSEC3Params != nil {
		if err := zd.Nsecify3(context.Background(), zd.Policy.NSEC3Params); err != nil {
			return fmt.Errorf("nsecify3: %w", err)
		}
	} else {
		if err := zd.Nsecify(); err != nil {
			return fmt.Errorf("nsecify: %w", err)
		}
	}

	if signKeyDB == "" {
		return fmt.Errorf("sign requires --keydb pointing at a key store with active keys for %s", globals.Zone)
	}
	ks, err := keystore.OpenSQLiteStore(signKeyDB)
	if err != nil {
		return fmt.Errorf("opening key store %s: %w", signKeyDB, err)
	}
	defer ks.Close()
	zd.KeyStore = ks

	if err := zd.Sign(context.Background()); err != nil {
		return fmt.Errorf("sign: %w", err)
	}
	printZone(zd)
	return nil
}

func printZone(zd *zone.ZoneData) {
	w := bufio.NewWriter(os.Stdout)
	defer w.Flush()
	zd.Domains().Walk(func(h zone.Handle[*zone.Domain]) bool {
		d := h.Value()
		for _, rs := range d.RRsets() {
			for _, rr := range rs.RRs {
				fmt.Fprintln(w, rr.String())
			}
		}
		return true
	})
	zd.Denials().Walk(func(h zone.Handle[*zone.Denial]) bool {
		for _, rr := range h.Value().RRset().RRs {
			fmt.Fprintln(w, rr.String())
		}
		for _, rr := range h.Value().RRset().RRSIGs {
			fmt.Fprintln(w, rr.String())
		}
		return true
	})
}
