package directory

import "nftmarket/internal/marketplace/models"

// Demo accounts created by SeedDemo.
const (
	DemoCollection = models.Collection("0xdemo")
	DemoSeller     = models.Address("0xalice")
	DemoBuyer      = models.Address("0xbob")
)

// SeedDemo mints a few items to DemoSeller and approves operator for all of
// them so a local run can list and sell without an external registry.
func SeedDemo(d *InMemory, operator models.Address) []models.ItemKey {
	var keys []models.ItemKey
	for _, id := range []models.ItemID{"1", "2", "3"} {
		_ = d.Mint(DemoCollection, id, DemoSeller)
		keys = append(keys, models.ItemKey{Collection: DemoCollection, ItemID: id})
	}
	d.SetApprovalForAll(DemoSeller, DemoCollection, operator, true)
	return keys
}
