package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/farmkit/agrorent/internal/identity"
	"github.com/farmkit/agrorent/internal/listing"
	"github.com/farmkit/agrorent/internal/machine"
	"github.com/farmkit/agrorent/internal/models"
)

var demoMachines = []machine.Input{
	{Name: "Mahindra 575 DI Tractor", Location: "Mandya", PricePerDay: 1800, Description: "45 HP, with rotavator"},
	{Name: "Combine Harvester", Location: "Ludhiana", PricePerDay: 6500, Description: "Self-propelled, 14 ft cutter bar"},
	{Name: "Paddy Transplanter", Location: "Thanjavur", PricePerDay: 2200, Description: "8-row walk-behind"},
	{Name: "Power Tiller", Location: "Palakkad", PricePerDay: 900, Description: "12 HP diesel"},
	{Name: "Seed Drill", Location: "Nashik", PricePerDay: 750, Description: "9-tine, tractor mounted"},
}

var demoListings = []listing.Input{
	{Name: "Sona Masuri Rice", Type: models.ListingCrop, Price: "52/kg", Quantity: "800 kg", Location: "Mandya"},
	{Name: "Hybrid Tomato Seeds", Type: models.ListingSeed, Price: "450/100 g", Quantity: "5 kg", Location: "Kolar"},
	{Name: "Coconut Saplings", Type: models.ListingPlant, Price: "120/plant", Quantity: "200", Location: "Palakkad"},
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load demo machines, a demo farmer and marketplace listings.",
	Long: `Creates admin@agrorent.local and farmer@agrorent.local (password "demo1234") with
a small machine catalogue and a few listings. Refuses to run on a database that
already has machines.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv()
		if err != nil {
			return err
		}
		defer e.Close()
		return seed(cmd.Context(), e.db.DB, e.provider, cmd.OutOrStdout())
	},
}

func seed(ctx context.Context, db *gorm.DB, provider *identity.Provider, out io.Writer) error {
	var count int64
	if err := db.WithContext(ctx).Model(&models.Machine{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return fmt.Errorf("database already has %d machines", count)
	}

	admin, err := provider.ProvisionAdmin(ctx, "admin@agrorent.local", "demo1234", "Demo Admin")
	if err != nil {
		return err
	}
	adminP := identity.Principal{UserID: admin.ID, Role: models.RoleAdmin}

	fmt.Fprintln(out, "🚜 Creating machines...")
	catalog := machine.NewCatalog(db)
	for _, in := range demoMachines {
		if _, err := catalog.Create(ctx, adminP, in); err != nil {
			return fmt.Errorf("machine %s: %w", in.Name, err)
		}
	}

	_, farmer, err := provider.SignUp(ctx, identity.SignUpRequest{
		Email:    "farmer@agrorent.local",
		Password: "demo1234",
		FullName: "Demo Farmer",
		Location: "Mandya",
	})
	if err != nil {
		return err
	}
	if err := provider.ConfirmEmail(ctx, "farmer@agrorent.local"); err != nil {
		return err
	}
	farmerP := identity.Principal{UserID: farmer.ID, Role: models.RoleFarmer}

	fmt.Fprintln(out, "🌾 Creating listings...")
	market := listing.NewMarket(db)
	for _, in := range demoListings {
		if _, err := market.Add(ctx, farmerP, in); err != nil {
			return fmt.Errorf("listing %s: %w", in.Name, err)
		}
	}

	fmt.Fprintf(out, "✅ Seeded %d machines and %d listings\n", len(demoMachines), len(demoListings))
	return nil
}
