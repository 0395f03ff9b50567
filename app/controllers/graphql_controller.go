package controllers

import (
	"errors"
	"net/http"

	"github.com/graphql-go/graphql"
	"github.com/shashiranjanraj/apotek/app/domain"
	"github.com/shashiranjanraj/apotek/app/services"
	gql "github.com/shashiranjanraj/apotek/pkg/graphql"
	"github.com/shashiranjanraj/apotek/pkg/middleware"
)

// GraphQLController exposes the read side of the register: catalog,
// today's history and receipts.
type GraphQLController struct {
	handler http.HandlerFunc
}

func NewGraphQLController(register *services.Register) (*GraphQLController, error) {
	schema, err := gql.NewSchema(rootQuery(register))
	if err != nil {
		return nil, err
	}
	return &GraphQLController{handler: gql.Handler(schema)}, nil
}

// Query handles POST /api/graphql.
func (c *GraphQLController) Query(w http.ResponseWriter, r *http.Request) {
	c.handler(w, r)
}

var (
	productType = graphql.NewObject(graphql.ObjectConfig{
		Name: "Product",
		Fields: graphql.Fields{
			"id":        &graphql.Field{Type: graphql.Int},
			"name":      &graphql.Field{Type: graphql.String},
			"unitPrice": &graphql.Field{Type: graphql.String},
			"stock":     &graphql.Field{Type: graphql.Int},
		},
	})

	lineType = graphql.NewObject(graphql.ObjectConfig{
		Name: "TransactionLine",
		Fields: graphql.Fields{
			"productId":    &graphql.Field{Type: graphql.Int},
			"name":         &graphql.Field{Type: graphql.String},
			"unitPrice":    &graphql.Field{Type: graphql.String},
			"quantity":     &graphql.Field{Type: graphql.Int},
			"lineSubtotal": &graphql.Field{Type: graphql.String},
		},
	})

	transactionType = graphql.NewObject(graphql.ObjectConfig{
		Name: "Transaction",
		Fields: graphql.Fields{
			"id":           &graphql.Field{Type: graphql.Int},
			"createdAt":    &graphql.Field{Type: graphql.DateTime},
			"cashierName":  &graphql.Field{Type: graphql.String},
			"customerName": &graphql.Field{Type: graphql.String},
			"subtotal":     &graphql.Field{Type: graphql.String},
			"tax":          &graphql.Field{Type: graphql.String},
			"total":        &graphql.Field{Type: graphql.String},
			"tendered":     &graphql.Field{Type: graphql.String},
			"change":       &graphql.Field{Type: graphql.String},
			"items":        &graphql.Field{Type: graphql.NewList(lineType)},
		},
	})
)

var errUnauthenticated = errors.New("unauthenticated")

func rootQuery(register *services.Register) *graphql.Object {
	idArg := graphql.FieldConfigArgument{"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Int)}}

	return graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"products": &graphql.Field{
				Type: graphql.NewList(productType),
				Resolve: func(p graphql.ResolveParams) (any, error) {
					products, err := register.Catalog(p.Context)
					if err != nil {
						return nil, err
					}
					out := make([]map[string]any, 0, len(products))
					for _, pr := range products {
						out = append(out, map[string]any{
							"id": int(pr.ID), "name": pr.Name, "unitPrice": pr.UnitPrice.String(), "stock": pr.Stock,
						})
					}
					return out, nil
				},
			},
			"todayTransactions": &graphql.Field{
				Type: graphql.NewList(transactionType),
				Resolve: func(p graphql.ResolveParams) (any, error) {
					id, ok := middleware.IdentityFromCtx(p.Context)
					if !ok {
						return nil, errUnauthenticated
					}
					list, err := register.GetHistory(p.Context, id.UserID)
					if err != nil {
						return nil, err
					}
					out := make([]map[string]any, 0, len(list))
					for _, tx := range list {
						out = append(out, transactionMap(tx))
					}
					return out, nil
				},
			},
			"transaction": &graphql.Field{
				Type: transactionType,
				Args: idArg,
				Resolve: func(p graphql.ResolveParams) (any, error) {
					who, ok := middleware.IdentityFromCtx(p.Context)
					if !ok {
						return nil, errUnauthenticated
					}
					id, _ := p.Args["id"].(int)
					tx, err := register.GetTransaction(p.Context, viewer(who), uint(id))
					if err != nil {
						return nil, err
					}
					return transactionMap(tx), nil
				},
			},
			"receipt": &graphql.Field{
				Type: graphql.String,
				Args: idArg,
				Resolve: func(p graphql.ResolveParams) (any, error) {
					who, ok := middleware.IdentityFromCtx(p.Context)
					if !ok {
						return nil, errUnauthenticated
					}
					id, _ := p.Args["id"].(int)
					view, err := register.GetReceipt(p.Context, viewer(who), uint(id))
					if err != nil {
						return nil, err
					}
					return view.Text(), nil
				},
			},
		},
	})
}

func viewer(id middleware.Identity) services.Cashier {
	return services.Cashier{ID: id.UserID, Name: id.Name, Role: id.Role}
}

func transactionMap(tx domain.Transaction) map[string]any {
	items := make([]map[string]any, 0, len(tx.Lines))
	for _, l := range tx.Lines {
		items = append(items, lineMap(l))
	}
	return map[string]any{
		"id":           int(tx.ID),
		"createdAt":    tx.CreatedAt,
		"cashierName":  tx.CashierName,
		"customerName": tx.CustomerName,
		"subtotal":     tx.Subtotal.String(),
		"tax":          tx.Tax.String(),
		"total":        tx.Total.String(),
		"tendered":     tx.Tendered.String(),
		"change":       tx.Change.String(),
		"items":        items,
	}
}

func lineMap(l domain.TransactionLine) map[string]any {
	return map[string]any{
		"productId":    int(l.ProductID),
		"name":         l.Name,
		"unitPrice":    l.UnitPrice.String(),
		"quantity":     l.Quantity,
		"lineSubtotal": l.LineSubtotal.String(),
	}
}
