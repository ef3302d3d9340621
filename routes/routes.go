package routes

import (
	"procur/controllers/clearing"
	"procur/controllers/payout"
	"procur/middlewares"

	"github.com/gofiber/fiber/v2"
)

func Setup(app *fiber.App, payoutH *payout.Handler, clearingH *clearing.Handler) {
	payouts := app.Group("/payouts", middlewares.OperatorAuth())
	payouts.Post("/batches", payoutH.CreateBatch)
	payouts.Get("/batches", payoutH.ListBatches)
	payouts.Get("/batches/:id/export.csv", payoutH.ExportCSV)
	payouts.Post("/batches/:id/mark-paid", payoutH.MarkPaid)

	balances := app.Group("/balances", middlewares.OperatorAuth())
	balances.Post("/:sellerOrgId/credit", payoutH.Credit)

	clr := app.Group("/clearing", middlewares.OperatorAuth())
	clr.Post("/orders/:orderId/open", clearingH.Open)
	clr.Get("/buyer-settlements", clearingH.ListBuyerSettlements)
	clr.Get("/farmer-payouts", clearingH.ListFarmerPayouts)
	clr.Post("/transactions/:id/complete-buyer", clearingH.CompleteBuyer)
	clr.Post("/transactions/:id/complete-farmer", clearingH.CompleteFarmer)
}
