package notification

// emailTemplates holds the HTML bodies for order notifications.
const emailTemplates = `
{{define "order_confirmed"}}
<html>
<body style="font-family: Arial, sans-serif; color: #333;">
  <h2>Thank you for your order, {{.Name}}!</h2>
  <p>Your payment has been received and your order is confirmed.</p>
  <table>
    <tr><td><strong>Order ID</strong></td><td>{{.OrderID}}</td></tr>
    <tr><td><strong>Amount paid</strong></td><td>{{.Total}}</td></tr>
    <tr><td><strong>Transaction</strong></td><td>{{.TransactionID}}</td></tr>
  </table>
  <p>We will let you know as soon as your order ships.</p>
</body>
</html>
{{end}}

{{define "payment_failed"}}
<html>
<body style="font-family: Arial, sans-serif; color: #333;">
  <h2>Payment unsuccessful</h2>
  <p>Hi {{.Name}}, we could not complete the payment for order {{.OrderID}}.</p>
  <p>{{.Reason}}</p>
  <p>The order has been cancelled. No money was taken; if you see a pending
  charge it will be reversed by your bank.</p>
</body>
</html>
{{end}}

{{define "order_cancelled"}}
<html>
<body style="font-family: Arial, sans-serif; color: #333;">
  <h2>Order cancelled</h2>
  <p>Your order {{.OrderID}} has been cancelled.</p>
  {{if .Refunded}}
  <p>Your payment will be refunded to the original payment method within 5-7
  business days.</p>
  {{end}}
</body>
</html>
{{end}}
`
