package services

import (
	"slices"
	"sort"
	"time"

	"aw-insights/internal/models"
)

const forecastMonths = 6

// Churn buckets by days since a customer's last purchase, measured
// from the newest date in the dataset.
var churnBuckets = []struct {
	name string
	days int
}{
	{"Active", 30},
	{"At Risk", 90},
	{"High Risk", 180},
	{"Churned", 1 << 30},
}

var spendingLabels = []string{"Low", "Medium", "High", "Premium"}
var frequencyLabels = []string{"Occasional", "Regular", "Frequent"}

var monthNames = []string{
	"January", "February", "March", "April", "May", "June",
	"July", "August", "September", "October", "November", "December",
}

type customerAgg struct {
	spend        float64
	orders       int
	lastPurchase time.Time
}

type productAgg struct {
	name      string
	category  string
	listPrice float64
	revenue   float64
	profit    float64
	quantity  int
}

type countryAgg struct {
	revenue   float64
	profit    float64
	orders    int
	customers map[int]struct{}
}

type groupAgg struct {
	revenue   float64
	profit    float64
	orders    int
	customers map[int]struct{}
}

type categoryAgg struct {
	revenue  float64
	profit   float64
	quantity int
	products map[int]struct{}
}

type monthlyAgg struct {
	revenue   float64
	orders    int
	customers map[int]struct{}
}

type channelAgg struct {
	revenue   float64
	profit    float64
	cost      float64
	orders    int
	quantity  int
	customers map[int]struct{}
}

type businessTypeAgg struct {
	revenue   float64
	profit    float64
	resellers map[int]struct{}
}

type resellerAgg struct {
	businessType string
	revenue      float64
	profit       float64
	quantity     int
}

type regionAgg struct {
	revenue   float64
	itemsSold int
}

type cityAgg struct {
	revenue   float64
	customers map[int]struct{}
}

// compute builds the full snapshot from joined sales rows in a single
// pass plus per-aggregate finalization.
func compute(sales []models.Sale) *Snapshot {
	var (
		totalRevenue float64
		totalProfit  float64
		marginSum    float64
		minDate      time.Time
		maxDate      time.Time
	)

	customers := make(map[int]*customerAgg)
	products := make(map[int]*productAgg)
	countries := make(map[string]*countryAgg)
	regions := make(map[string]*regionAgg)
	groups := make(map[string]*groupAgg)
	categories := make(map[string]*categoryAgg)
	colors := make(map[string]*models.ColorSales)
	monthly := make(map[string]*monthlyAgg)
	fiscal := make(map[string]float64)
	channels := make(map[string]*channelAgg)
	businessTypes := make(map[string]*businessTypeAgg)
	resellers := make(map[string]*resellerAgg)
	cities := make(map[string]*cityAgg)

	var seasonalSum [12]float64
	var seasonalCount [12]int

	for _, s := range sales {
		profit := s.Profit()
		totalRevenue += s.Amount
		totalProfit += profit
		marginSum += s.ProfitMargin()

		if minDate.IsZero() || s.OrderDate.Before(minDate) {
			minDate = s.OrderDate
		}
		if s.OrderDate.After(maxDate) {
			maxDate = s.OrderDate
		}

		if s.CustomerKey != models.NoKey {
			c := customers[s.CustomerKey]
			if c == nil {
				c = &customerAgg{}
				customers[s.CustomerKey] = c
			}
			c.spend += s.Amount
			c.orders++
			if s.OrderDate.After(c.lastPurchase) {
				c.lastPurchase = s.OrderDate
			}
		}

		p := products[s.ProductKey]
		if p == nil {
			p = &productAgg{name: s.Product, category: s.Category, listPrice: s.ListPrice}
			products[s.ProductKey] = p
		}
		p.revenue += s.Amount
		p.profit += profit
		p.quantity += s.Quantity

		if s.Country != "" {
			co := countries[s.Country]
			if co == nil {
				co = &countryAgg{customers: make(map[int]struct{})}
				countries[s.Country] = co
			}
			co.revenue += s.Amount
			co.profit += profit
			co.orders++
			if s.CustomerKey != models.NoKey {
				co.customers[s.CustomerKey] = struct{}{}
			}
		}

		if s.Region != "" {
			r := regions[s.Region]
			if r == nil {
				r = &regionAgg{}
				regions[s.Region] = r
			}
			r.revenue += s.Amount
			r.itemsSold += s.Quantity
		}

		if s.Group != "" {
			g := groups[s.Group]
			if g == nil {
				g = &groupAgg{customers: make(map[int]struct{})}
				groups[s.Group] = g
			}
			g.revenue += s.Amount
			g.profit += profit
			g.orders++
			if s.CustomerKey != models.NoKey {
				g.customers[s.CustomerKey] = struct{}{}
			}
		}

		if s.Category != "" {
			cat := categories[s.Category]
			if cat == nil {
				cat = &categoryAgg{products: make(map[int]struct{})}
				categories[s.Category] = cat
			}
			cat.revenue += s.Amount
			cat.profit += profit
			cat.quantity += s.Quantity
			cat.products[s.ProductKey] = struct{}{}
		}

		if s.Color != "" && s.Color != "NA" {
			col := colors[s.Color]
			if col == nil {
				col = &models.ColorSales{Color: s.Color}
				colors[s.Color] = col
			}
			col.Revenue += s.Amount
			col.Quantity += s.Quantity
		}

		month := s.OrderDate.Format("2006-01")
		m := monthly[month]
		if m == nil {
			m = &monthlyAgg{customers: make(map[int]struct{})}
			monthly[month] = m
		}
		m.revenue += s.Amount
		m.orders++
		if s.CustomerKey != models.NoKey {
			m.customers[s.CustomerKey] = struct{}{}
		}

		mi := int(s.OrderDate.Month()) - 1
		seasonalSum[mi] += s.Amount
		seasonalCount[mi]++

		if s.FiscalYear != "" {
			fiscal[s.FiscalYear] += s.Amount
		}

		ch := channels[s.Channel]
		if ch == nil {
			ch = &channelAgg{customers: make(map[int]struct{})}
			channels[s.Channel] = ch
		}
		ch.revenue += s.Amount
		ch.profit += profit
		ch.cost += s.TotalCost
		ch.orders++
		ch.quantity += s.Quantity
		if s.CustomerKey != models.NoKey {
			ch.customers[s.CustomerKey] = struct{}{}
		}

		if s.Reseller != "" {
			if s.BusinessType != "" {
				bt := businessTypes[s.BusinessType]
				if bt == nil {
					bt = &businessTypeAgg{resellers: make(map[int]struct{})}
					businessTypes[s.BusinessType] = bt
				}
				bt.revenue += s.Amount
				bt.profit += profit
				bt.resellers[s.ResellerKey] = struct{}{}
			}

			re := resellers[s.Reseller]
			if re == nil {
				re = &resellerAgg{businessType: s.BusinessType}
				resellers[s.Reseller] = re
			}
			re.revenue += s.Amount
			re.profit += profit
			re.quantity += s.Quantity
		}

		if s.City != "" {
			ci := cities[s.City]
			if ci == nil {
				ci = &cityAgg{customers: make(map[int]struct{})}
				cities[s.City] = ci
			}
			ci.revenue += s.Amount
			if s.CustomerKey != models.NoKey {
				ci.customers[s.CustomerKey] = struct{}{}
			}
		}
	}

	n := int64(len(sales))
	snap := &Snapshot{
		RecordCount: n,
		CreatedAt:   time.Now(),
	}
	if n == 0 {
		return snap
	}

	snap.Summary = buildSummary(n, totalRevenue, totalProfit, marginSum, minDate, maxDate, customers, products, countries, fiscal)
	snap.Monthly = buildMonthly(monthly)
	snap.Trend, snap.Forecast = buildTrend(snap.Monthly)
	snap.Seasonal = buildSeasonal(seasonalSum, seasonalCount)
	snap.Countries = buildCountries(countries, totalRevenue)
	snap.Regions = buildRegions(regions)
	snap.Groups = buildGroups(groups)
	snap.Categories = buildCategories(categories, totalRevenue)
	snap.Products = buildProducts(products)
	snap.Colors = buildColors(colors)
	snap.PricePoints = buildPricePoints(products)
	snap.Segments = buildSegments(customers)
	snap.Churn = buildChurn(customers, maxDate)
	snap.Cities = buildCities(cities)
	snap.Channels = buildChannels(channels)
	snap.BusinessTypes = buildBusinessTypes(businessTypes)
	snap.Resellers = buildResellers(resellers)
	snap.Opportunities = buildOpportunities(snap.Countries, len(customers))

	spends := make([]float64, 0, len(customers))
	for _, c := range customers {
		spends = append(spends, c.spend)
	}
	snap.Recommendations = recommend(snap, spends)

	return snap
}

func buildSummary(n int64, totalRevenue, totalProfit, marginSum float64,
	minDate, maxDate time.Time,
	customers map[int]*customerAgg,
	products map[int]*productAgg,
	countries map[string]*countryAgg,
	fiscal map[string]float64) models.Summary {

	summary := models.Summary{
		TotalRevenue:    totalRevenue,
		TotalProfit:     totalProfit,
		Transactions:    n,
		UniqueCustomers: len(customers),
		UniqueProducts:  len(products),
		Countries:       len(countries),
		AvgOrderValue:   totalRevenue / float64(n),
		AvgProfitMargin: marginSum / float64(n),
		FirstSale:       minDate,
		LastSale:        maxDate,
	}

	if len(customers) > 0 {
		var spend float64
		for _, c := range customers {
			spend += c.spend
		}
		summary.CustomerLTV = spend / float64(len(customers))
	}

	// YoY growth compares the two most recent fiscal years.
	years := make([]string, 0, len(fiscal))
	for y := range fiscal {
		years = append(years, y)
	}
	sort.Strings(years)
	if len(years) > 1 {
		last := fiscal[years[len(years)-1]]
		prev := fiscal[years[len(years)-2]]
		if prev != 0 {
			summary.YoYGrowth = (last - prev) / prev * 100
		}
	}

	return summary
}

func buildMonthly(monthly map[string]*monthlyAgg) []models.MonthlyPoint {
	points := make([]models.MonthlyPoint, 0, len(monthly))
	for month, m := range monthly {
		points = append(points, models.MonthlyPoint{
			Month:           month,
			Revenue:         m.revenue,
			Orders:          m.orders,
			ActiveCustomers: len(m.customers),
		})
	}
	slices.SortFunc(points, func(a, b models.MonthlyPoint) int {
		if a.Month < b.Month {
			return -1
		}
		if a.Month > b.Month {
			return 1
		}
		return 0
	})
	return points
}

func buildTrend(monthly []models.MonthlyPoint) (models.TrendLine, []models.ForecastPoint) {
	if len(monthly) < 2 {
		return models.TrendLine{}, nil
	}

	y := make([]float64, len(monthly))
	for i, p := range monthly {
		y[i] = p.Revenue
	}
	trend := linearRegression(y)

	last, err := time.Parse("2006-01", monthly[len(monthly)-1].Month)
	if err != nil {
		return trend, nil
	}

	forecast := make([]models.ForecastPoint, 0, forecastMonths)
	for i := 1; i <= forecastMonths; i++ {
		x := float64(len(monthly) - 1 + i)
		forecast = append(forecast, models.ForecastPoint{
			Month:   last.AddDate(0, i, 0).Format("2006-01"),
			Revenue: trend.Slope*x + trend.Intercept,
		})
	}
	return trend, forecast
}

func buildSeasonal(sum [12]float64, count [12]int) []models.SeasonalPoint {
	points := make([]models.SeasonalPoint, 0, 12)
	for i, name := range monthNames {
		if count[i] == 0 {
			continue
		}
		points = append(points, models.SeasonalPoint{
			Month:      name,
			AvgRevenue: sum[i] / float64(count[i]),
		})
	}
	return points
}

func buildCountries(countries map[string]*countryAgg, totalRevenue float64) []models.CountrySales {
	result := make([]models.CountrySales, 0, len(countries))
	for name, c := range countries {
		cs := models.CountrySales{
			Country:   name,
			Revenue:   c.revenue,
			Profit:    c.profit,
			Customers: len(c.customers),
		}
		if totalRevenue != 0 {
			cs.Share = c.revenue / totalRevenue * 100
		}
		if c.orders > 0 {
			cs.AvgOrderValue = c.revenue / float64(c.orders)
		}
		result = append(result, cs)
	}
	sortByRevenue(result, func(c models.CountrySales) float64 { return c.Revenue })
	return result
}

func buildRegions(regions map[string]*regionAgg) []models.RegionSales {
	result := make([]models.RegionSales, 0, len(regions))
	for name, r := range regions {
		result = append(result, models.RegionSales{
			Region:    name,
			Revenue:   r.revenue,
			ItemsSold: r.itemsSold,
		})
	}
	sortByRevenue(result, func(r models.RegionSales) float64 { return r.Revenue })
	return result
}

func buildGroups(groups map[string]*groupAgg) []models.GroupMetrics {
	result := make([]models.GroupMetrics, 0, len(groups))
	for name, g := range groups {
		gm := models.GroupMetrics{
			Group:        name,
			Revenue:      g.revenue,
			Profit:       g.profit,
			Transactions: g.orders,
			Customers:    len(g.customers),
		}
		if g.orders > 0 {
			gm.AvgTransaction = g.revenue / float64(g.orders)
		}
		result = append(result, gm)
	}
	sortByRevenue(result, func(g models.GroupMetrics) float64 { return g.Revenue })
	return result
}

func buildCategories(categories map[string]*categoryAgg, totalRevenue float64) []models.CategorySales {
	result := make([]models.CategorySales, 0, len(categories))
	for name, c := range categories {
		cs := models.CategorySales{
			Category: name,
			Revenue:  c.revenue,
			Profit:   c.profit,
			Quantity: c.quantity,
			Products: len(c.products),
		}
		if totalRevenue != 0 {
			cs.Share = c.revenue / totalRevenue * 100
		}
		if c.revenue != 0 {
			cs.Margin = c.profit / c.revenue * 100
		}
		result = append(result, cs)
	}
	sortByRevenue(result, func(c models.CategorySales) float64 { return c.Revenue })
	return result
}

func buildProducts(products map[int]*productAgg) []models.ProductSales {
	result := make([]models.ProductSales, 0, len(products))
	for _, p := range products {
		result = append(result, models.ProductSales{
			Product:  p.name,
			Category: p.category,
			Revenue:  p.revenue,
			Profit:   p.profit,
			Quantity: p.quantity,
		})
	}
	sortByRevenue(result, func(p models.ProductSales) float64 { return p.Revenue })
	return result
}

func buildColors(colors map[string]*models.ColorSales) []models.ColorSales {
	result := make([]models.ColorSales, 0, len(colors))
	for _, c := range colors {
		result = append(result, *c)
	}
	sortByRevenue(result, func(c models.ColorSales) float64 { return c.Revenue })
	return result
}

func buildPricePoints(products map[int]*productAgg) []models.PricePoint {
	result := make([]models.PricePoint, 0, len(products))
	for _, p := range products {
		result = append(result, models.PricePoint{
			Product:   p.name,
			ListPrice: p.listPrice,
			Revenue:   p.revenue,
			Quantity:  p.quantity,
		})
	}
	slices.SortFunc(result, func(a, b models.PricePoint) int {
		if a.ListPrice < b.ListPrice {
			return -1
		}
		if a.ListPrice > b.ListPrice {
			return 1
		}
		return 0
	})
	return result
}

// buildSegments places every customer in a spending-quartile x
// order-frequency-tertile cell. All cells are emitted, including
// empty ones, in fixed order.
func buildSegments(customers map[int]*customerAgg) []models.SegmentCell {
	if len(customers) == 0 {
		return nil
	}

	spends := make([]float64, 0, len(customers))
	orders := make([]float64, 0, len(customers))
	for _, c := range customers {
		spends = append(spends, c.spend)
		orders = append(orders, float64(c.orders))
	}
	sort.Float64s(spends)
	sort.Float64s(orders)

	spendCuts := []float64{
		quantile(spends, 0.25),
		quantile(spends, 0.5),
		quantile(spends, 0.75),
	}
	orderCuts := []float64{
		quantile(orders, 1.0/3),
		quantile(orders, 2.0/3),
	}

	counts := make(map[[2]int]int)
	for _, c := range customers {
		si := bucketIndex(c.spend, spendCuts)
		fi := bucketIndex(float64(c.orders), orderCuts)
		counts[[2]int{si, fi}]++
	}

	cells := make([]models.SegmentCell, 0, len(spendingLabels)*len(frequencyLabels))
	for si, spending := range spendingLabels {
		for fi, frequency := range frequencyLabels {
			cells = append(cells, models.SegmentCell{
				Spending:  spending,
				Frequency: frequency,
				Customers: counts[[2]int{si, fi}],
			})
		}
	}
	return cells
}

func bucketIndex(v float64, cuts []float64) int {
	for i, cut := range cuts {
		if v <= cut {
			return i
		}
	}
	return len(cuts)
}

func buildChurn(customers map[int]*customerAgg, maxDate time.Time) []models.ChurnBucket {
	if len(customers) == 0 {
		return nil
	}

	counts := make(map[string]int, len(churnBuckets))
	for _, c := range customers {
		days := int(maxDate.Sub(c.lastPurchase).Hours() / 24)
		for _, b := range churnBuckets {
			if days <= b.days {
				counts[b.name]++
				break
			}
		}
	}

	total := float64(len(customers))
	result := make([]models.ChurnBucket, 0, len(churnBuckets))
	for _, b := range churnBuckets {
		result = append(result, models.ChurnBucket{
			Bucket:    b.name,
			Customers: counts[b.name],
			Share:     float64(counts[b.name]) / total * 100,
		})
	}
	return result
}

func buildCities(cities map[string]*cityAgg) []models.CitySales {
	result := make([]models.CitySales, 0, len(cities))
	for name, c := range cities {
		result = append(result, models.CitySales{
			City:      name,
			Revenue:   c.revenue,
			Customers: len(c.customers),
		})
	}
	sortByRevenue(result, func(c models.CitySales) float64 { return c.Revenue })
	return result
}

func buildChannels(channels map[string]*channelAgg) []models.ChannelMetrics {
	result := make([]models.ChannelMetrics, 0, len(channels))
	for name, ch := range channels {
		cm := models.ChannelMetrics{
			Channel:      name,
			Revenue:      ch.revenue,
			Profit:       ch.profit,
			Transactions: ch.orders,
			Customers:    len(ch.customers),
			Quantity:     ch.quantity,
		}
		if ch.revenue != 0 {
			cm.Margin = ch.profit / ch.revenue * 100
		}
		if ch.orders > 0 {
			cm.AvgTransaction = ch.revenue / float64(ch.orders)
		}
		if ch.quantity > 0 {
			cm.RevenuePerUnit = ch.revenue / float64(ch.quantity)
			cm.CostPerUnit = ch.cost / float64(ch.quantity)
		}
		if cm.CostPerUnit != 0 {
			cm.EfficiencyRatio = cm.RevenuePerUnit / cm.CostPerUnit
		}
		result = append(result, cm)
	}
	sortByRevenue(result, func(c models.ChannelMetrics) float64 { return c.Revenue })
	return result
}

func buildBusinessTypes(businessTypes map[string]*businessTypeAgg) []models.BusinessTypeSales {
	var total float64
	for _, bt := range businessTypes {
		total += bt.revenue
	}

	result := make([]models.BusinessTypeSales, 0, len(businessTypes))
	for name, bt := range businessTypes {
		bts := models.BusinessTypeSales{
			BusinessType: name,
			Revenue:      bt.revenue,
			Profit:       bt.profit,
			Resellers:    len(bt.resellers),
		}
		if total != 0 {
			bts.Share = bt.revenue / total * 100
		}
		result = append(result, bts)
	}
	sortByRevenue(result, func(b models.BusinessTypeSales) float64 { return b.Revenue })
	return result
}

func buildResellers(resellers map[string]*resellerAgg) []models.ResellerSales {
	result := make([]models.ResellerSales, 0, len(resellers))
	for name, r := range resellers {
		result = append(result, models.ResellerSales{
			Reseller:     name,
			BusinessType: r.businessType,
			Revenue:      r.revenue,
			Profit:       r.profit,
			Quantity:     r.quantity,
		})
	}
	sortByRevenue(result, func(r models.ResellerSales) float64 { return r.Revenue })
	return result
}

func buildOpportunities(countries []models.CountrySales, totalCustomers int) []models.OpportunityPoint {
	if totalCustomers == 0 {
		return nil
	}
	result := make([]models.OpportunityPoint, 0, len(countries))
	for _, c := range countries {
		op := models.OpportunityPoint{
			Country:     c.Country,
			Revenue:     c.Revenue,
			Penetration: float64(c.Customers) / float64(totalCustomers) * 100,
		}
		if c.Customers > 0 {
			op.RevenuePerCustomer = c.Revenue / float64(c.Customers)
		}
		result = append(result, op)
	}
	return result
}

// sortByRevenue sorts descending by the extracted value, which is the
// ordering every ranked listing uses.
func sortByRevenue[T any](s []T, value func(T) float64) {
	slices.SortFunc(s, func(a, b T) int {
		va, vb := value(a), value(b)
		if va > vb {
			return -1
		}
		if va < vb {
			return 1
		}
		return 0
	})
}
